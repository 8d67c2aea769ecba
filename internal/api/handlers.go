package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/snapshot"
	"github.com/example/s2c/internal/store"
	"github.com/example/s2c/internal/viewport"
)

type createRequest struct {
	Name string `json:"name"`
}

// SaveRequest is the body of PUT /api/projects/:id.
type SaveRequest struct {
	Shapes   json.RawMessage `json:"shapes"`
	Viewport viewport.Data   `json:"viewport"`
}

func (s *Server) live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func (s *Server) ready(c fiber.Ctx) error {
	if err := s.store.Ping(c.Context()); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (s *Server) startup(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "started"})
}

func storeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	case errors.Is(err, store.ErrInvalidName):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func (s *Server) listProjects(c fiber.Ctx) error {
	ps, err := s.store.List(c.Context())
	if err != nil {
		return storeError(c, err)
	}
	if ps == nil {
		ps = []*store.Project{}
	}
	return c.JSON(fiber.Map{"projects": ps})
}

func (s *Server) createProject(c fiber.Ctx) error {
	var req createRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	p, err := s.store.Create(c.Context(), req.Name)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(p)
}

func (s *Server) getProject(c fiber.Ctx) error {
	p, err := s.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(p)
}

func (s *Server) saveProject(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}
	var req SaveRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if len(req.Shapes) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "shapes required"})
	}
	if err := json.Unmarshal(req.Shapes, shape.NewMap()); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.store.Save(c.Context(), c.Params("id"), req.Shapes, req.Viewport); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) deleteProject(c fiber.Ctx) error {
	if err := s.store.Delete(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) frameSnapshot(c fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("n"))
	if err != nil || n <= 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid frame number"})
	}
	p, err := s.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	m, err := p.ShapeMap()
	if err != nil {
		return storeError(c, err)
	}
	f, ok := m.FrameByNumber(n)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "frame not found"})
	}
	img, err := snapshot.PNG(f, m.Shapes())
	if err != nil {
		if errors.Is(err, snapshot.ErrEmptyFrame) {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return storeError(c, err)
	}
	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", `attachment; filename="`+snapshot.FileName(f)+`"`)
	return c.Send(img)
}
