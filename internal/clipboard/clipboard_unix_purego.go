//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is served directly over the X11 protocol. The
// process owns the CLIPBOARD selection and answers conversion requests
// from a background event loop.

var (
	initOnce sync.Once
	initErr  error
	owner    *x11Owner
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		o, err := newX11Owner()
		if err != nil {
			initErr = fmt.Errorf("x11 clipboard: %w", err)
			return
		}
		owner = o
	})
	return initErr
}

// WritePNG publishes encoded PNG data.
func WritePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.publish(content{png: data})
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.publish(content{text: []byte(text)})
}

// WriteMarkup publishes generated markup as text/html with a plain text
// fallback.
func WriteMarkup(markup string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	b := []byte(markup)
	return owner.publish(content{text: b, html: b})
}

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data, err := owner.read(owner.atoms[atomUTF8])
	if err != nil {
		data, err = owner.read(xproto.AtomString)
		if err != nil {
			return "", err
		}
	}
	if len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return "", fmt.Errorf("clipboard does not contain text data")
	}
	return string(data), nil
}

const (
	atomClipboard = iota
	atomTargets
	atomUTF8
	atomTextPlain
	atomHTML
	atomPNG
	atomProperty
	atomCount
)

var atomNames = [atomCount]string{
	atomClipboard: "CLIPBOARD",
	atomTargets:   "TARGETS",
	atomUTF8:      "UTF8_STRING",
	atomTextPlain: "text/plain;charset=utf-8",
	atomHTML:      "text/html",
	atomPNG:       "image/png",
	atomProperty:  "S2C_CLIPBOARD",
}

type content struct {
	text []byte
	html []byte
	png  []byte
}

type x11Owner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  [atomCount]xproto.Atom

	mu   sync.RWMutex
	data content
}

func newX11Owner() (*x11Owner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	const mask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		conn.Close()
		return nil, err
	}
	o := &x11Owner{conn: conn, window: window}
	for i, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			xproto.DestroyWindow(conn, window)
			conn.Close()
			return nil, fmt.Errorf("intern %s: %w", name, err)
		}
		o.atoms[i] = reply.Atom
	}
	go o.serve()
	return o, nil
}

func (o *x11Owner) publish(c content) error {
	o.mu.Lock()
	o.data = content{
		text: append([]byte(nil), c.text...),
		html: append([]byte(nil), c.html...),
		png:  append([]byte(nil), c.png...),
	}
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms[atomClipboard], xproto.TimeCurrentTime).Check()
}

func (o *x11Owner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.data = content{}
			o.mu.Unlock()
		}
	}
}

// targets lists the conversions the current content supports.
func (o *x11Owner) targets(c content) []xproto.Atom {
	out := []xproto.Atom{o.atoms[atomTargets]}
	if len(c.text) > 0 {
		out = append(out, o.atoms[atomUTF8], xproto.AtomString, o.atoms[atomTextPlain])
	}
	if len(c.html) > 0 {
		out = append(out, o.atoms[atomHTML])
	}
	if len(c.png) > 0 {
		out = append(out, o.atoms[atomPNG])
	}
	return out
}

func (o *x11Owner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	o.mu.RLock()
	c := o.data
	o.mu.RUnlock()

	typ := e.Target
	format := byte(8)
	var payload []byte
	switch e.Target {
	case o.atoms[atomTargets]:
		ts := o.targets(c)
		payload = make([]byte, len(ts)*4)
		for i, a := range ts {
			xgb.Put32(payload[i*4:], uint32(a))
		}
		typ, format = xproto.AtomAtom, 32
	case o.atoms[atomUTF8], xproto.AtomString, o.atoms[atomTextPlain]:
		payload, typ = c.text, o.atoms[atomUTF8]
	case o.atoms[atomHTML]:
		payload = c.html
	case o.atoms[atomPNG]:
		payload = c.png
	}
	if len(payload) == 0 {
		property = xproto.AtomNone
	} else {
		n := uint32(len(payload))
		if format == 32 {
			n /= 4
		}
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, typ, format, n, payload)
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// read converts the CLIPBOARD selection to target on a private connection
// so the owner's event loop is never blocked.
func (o *x11Owner) read(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	prop := o.atoms[atomProperty]
	if err := xproto.ConvertSelectionChecked(conn, window, o.atoms[atomClipboard], target, prop, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, fmt.Errorf("clipboard target unavailable")
		}
		if e.Property != prop {
			continue
		}
		reply, perr := xproto.GetProperty(conn, true, window, prop, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
