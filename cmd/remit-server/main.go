package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/oarkflow/log"
	"github.com/robfig/cron/v3"

	"github.com/oarkflow/remit/pipeline"
	"github.com/oarkflow/remit/pkg/config"
	"github.com/oarkflow/remit/pkg/payers"
)

type Server struct {
	app      *fiber.App
	pipeline *pipeline.Pipeline
	cfg      *config.Config
}

type ParseResponse struct {
	File   string `json:"file"`
	Rows   any    `json:"rows"`
	Report any    `json:"report,omitempty"`
}

func NewServer(cfg *config.Config) (*Server, error) {
	registry := payers.NewRegistry()
	if cfg.PayerOverlay != "" {
		if err := registry.LoadOverlay(cfg.PayerOverlay); err != nil {
			return nil, fmt.Errorf("load payer overlay: %w", err)
		}
	}
	p, err := pipeline.New(pipeline.WithConfig(cfg), pipeline.WithPayerRegistry(registry))
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 64 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	s := &Server{app: app, pipeline: p, cfg: cfg}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.app.Use(cors.New())
	s.app.Use(logger.New())

	s.app.Get("/healthz", s.healthHandler)
	s.app.Post("/v1/remit/parse", s.parseHandler)
}

func (s *Server) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) parseHandler(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field 'file' is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	rows, rep, err := s.pipeline.ProcessFile(c.Context(), fh.Filename, data)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(ParseResponse{File: fh.Filename, Rows: rows, Report: rep})
}

// sweepInbox runs the pipeline over the configured inbox directory and
// moves processed files aside so they are not picked up again.
func (s *Server) sweepInbox(dir string) {
	files, err := pipeline.Discover([]string{dir})
	if err != nil {
		log.Printf("inbox sweep: %v", err)
		return
	}
	if len(files) == 0 {
		return
	}
	summary, err := s.pipeline.Run(context.Background(), []string{dir})
	if err != nil {
		log.Printf("inbox sweep: %v", err)
		return
	}
	log.Printf("inbox sweep %s: %d files, %d rows", summary.RunID, summary.Metrics.Files, summary.Metrics.Rows)
	for _, res := range summary.Results {
		if res.Error != "" {
			continue
		}
		if err := os.Rename(res.File, res.File+pipeline.ProcessedExt); err != nil {
			log.Printf("inbox sweep: move %s: %v", res.File, err)
		}
	}
}

func main() {
	port := flag.String("port", "8080", "port to listen on")
	configPath := flag.String("config", "", "path to YAML config")
	inbox := flag.String("inbox", "", "directory swept for new 835 files")
	schedule := flag.String("schedule", "@every 1m", "cron schedule for the inbox sweep")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("load config: %v", err)
		os.Exit(1)
	}

	server, err := NewServer(cfg)
	if err != nil {
		log.Printf("start server: %v", err)
		os.Exit(1)
	}

	if *inbox != "" {
		if err := os.MkdirAll(filepath.Clean(*inbox), 0o755); err != nil {
			log.Printf("create inbox: %v", err)
			os.Exit(1)
		}
		c := cron.New()
		if _, err := c.AddFunc(*schedule, func() { server.sweepInbox(*inbox) }); err != nil {
			log.Printf("schedule inbox sweep: %v", err)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
		log.Printf("sweeping inbox %s on schedule %q", *inbox, *schedule)
	}

	log.Printf("listening on :%s", *port)
	if err := server.app.Listen(":" + *port); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
