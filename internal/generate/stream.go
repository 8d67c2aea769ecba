package generate

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/shape"
)

const readChunk = 4096

// setMarkup returns the action that replaces the payload of shape id.
func setMarkup(id, markup string) canvas.Action {
	return canvas.UpdateShape{ID: id, Patch: func(s shape.Shape) shape.Shape {
		if g, ok := s.(*shape.GeneratedUI); ok {
			m := markup
			g.UISpecData = &m
		}
		return s
	}}
}

// completeRunes trims a trailing partial UTF-8 sequence.
func completeRunes(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		at := len(b) - i
		if utf8.RuneStart(b[at]) {
			if !utf8.FullRune(b[at:]) {
				return b[:at]
			}
			return b
		}
	}
	return b
}

// stream appends everything read from r into the payload of shape id.
// Intermediate updates are at least throttle apart; zero means every
// chunk. The complete markup is always written once r is drained.
func stream(ctx context.Context, store *canvas.Store, id string, r io.Reader, throttle time.Duration, now func() time.Time) error {
	var (
		acc  []byte
		last time.Time
		buf  = make([]byte, readChunk)
	)
	for {
		n, err := r.Read(buf)
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if n > 0 {
			acc = append(acc, buf[:n]...)
			t := now()
			if throttle <= 0 || last.IsZero() || t.Sub(last) >= throttle {
				_ = store.Dispatch(setMarkup(id, string(completeRunes(acc))))
				last = t
			}
		}
		if errors.Is(err, io.EOF) {
			_ = store.Dispatch(setMarkup(id, string(acc)))
			return nil
		}
		if err != nil {
			return err
		}
	}
}
