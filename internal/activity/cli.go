package activity

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/briangreenhill/mapty/internal/coordinator"
	"github.com/briangreenhill/mapty/internal/listview"
	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/prometheus/client_golang/prometheus"
)

type CLI struct {
	writer   io.Writer
	service  *Service
	args     []string
	logger   *slog.Logger
	api      APIConfig
	gatherer prometheus.Gatherer
}

func NewCLI(w io.Writer, logger *slog.Logger, service *Service, api APIConfig, gatherer prometheus.Gatherer, args []string) *CLI {
	return &CLI{
		writer:   w,
		service:  service,
		args:     args,
		logger:   logger,
		api:      api,
		gatherer: gatherer,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.Usage()
		return nil
	}

	if args[0] == "api" {
		return c.RunAPI(ctx)
	}

	if err := c.service.Start(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "add":
		return c.AddWorkout(ctx)
	case "list":
		fmt.Fprintln(c.writer, c.service.Panel().View())
	case "delete":
		return c.DeleteWorkout(ctx)
	case "delete-all":
		if err := c.service.Coordinator().DeleteAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.writer, "All workouts deleted")
	case "reset":
		if err := c.service.Coordinator().Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.writer, "Saved workouts removed")
	case "locate":
		return c.LocateWorkout()
	case "import":
		return c.ImportGPX(ctx)
	case "export":
		return c.ExportGPX()
	default:
		c.Usage()
	}
	return nil
}

func (c *CLI) Usage() {
	fmt.Fprintf(c.writer, "Usage: mapty [command] [flags]\n--help show this message\n\n"+
		"\tadd --type running|cycling --distance --duration [--cadence|--elevation] [--lat --lng]\n"+
		"\tlist\n\tdelete --id\n\tdelete-all\n\treset\n\tlocate --id\n"+
		"\timport --gpx [--type] [--cadence]\n\texport --out\n\tapi\n")
}

func (c *CLI) flags() *flag.FlagSet {
	fs := flag.NewFlagSet("mapty "+c.args[0], flag.ContinueOnError)
	fs.SetOutput(c.writer)
	fs.Usage = c.Usage
	return fs
}

func (c *CLI) AddWorkout(ctx context.Context) error {
	fs := c.flags()
	var in coordinator.FormInput
	fs.StringVar(&in.Type, "type", "running", "running or cycling")
	fs.StringVar(&in.Distance, "distance", "", "distance in km")
	fs.StringVar(&in.Duration, "duration", "", "duration in minutes")
	fs.StringVar(&in.Cadence, "cadence", "", "steps per minute (running)")
	fs.StringVar(&in.Elevation, "elevation", "", "elevation gain in meters (cycling)")
	fs.StringVar(&in.Lat, "lat", "", "latitude of the pin")
	fs.StringVar(&in.Lng, "lng", "", "longitude of the pin")
	if err := fs.Parse(c.args[1:]); err != nil {
		return err
	}

	if in.Lat == "" && in.Lng == "" {
		c.service.DropPinAtCenter()
	}

	w, err := c.service.Coordinator().SubmitForm(ctx, in)
	var verr *workout.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(c.writer, verr.Error())
		return err
	}
	if w.ID == "" {
		return err
	}

	fmt.Fprintln(c.writer, listview.Format(w))
	fmt.Fprintln(c.writer, "Workout added successfully")
	return err
}

func (c *CLI) DeleteWorkout(ctx context.Context) error {
	fs := c.flags()
	var id string
	fs.StringVar(&id, "id", "", "workout id")
	if err := fs.Parse(c.args[1:]); err != nil {
		return err
	}
	if id == "" {
		fs.Usage()
		return nil
	}

	if _, ok := c.service.Coordinator().Workout(id); !ok {
		fmt.Fprintf(c.writer, "No workout %s\n", id)
		return nil
	}
	if err := c.service.Coordinator().DeleteWorkout(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(c.writer, "Workout deleted")
	return nil
}

func (c *CLI) LocateWorkout() error {
	fs := c.flags()
	var id string
	fs.StringVar(&id, "id", "", "workout id")
	if err := fs.Parse(c.args[1:]); err != nil {
		return err
	}

	w, ok := c.service.Coordinator().Workout(id)
	if !ok {
		fmt.Fprintf(c.writer, "No workout %s\n", id)
		return nil
	}
	if err := c.service.Coordinator().LocateWorkout(id); err != nil {
		return err
	}
	if !c.service.Coordinator().MapReady() {
		fmt.Fprintf(c.writer, "%s is at %s (map unavailable)\n", w.Description, w.Coords)
		return nil
	}
	center, zoom := c.service.Layer().View()
	fmt.Fprintf(c.writer, "Map centered on %s at zoom %d\n", center, zoom)
	return nil
}

func (c *CLI) ImportGPX(ctx context.Context) error {
	fs := c.flags()
	var gpxFile, kindName string
	var cadence int
	fs.StringVar(&gpxFile, "gpx", "", "path to gpx file")
	fs.StringVar(&kindName, "type", "running", "running or cycling")
	fs.IntVar(&cadence, "cadence", 0, "steps per minute (running)")
	if err := fs.Parse(c.args[1:]); err != nil {
		return err
	}
	if gpxFile == "" {
		fs.Usage()
		return nil
	}

	c.logger.Info("Importing gpx file", slog.String("gpx_file", gpxFile))

	kind, err := workout.ParseKind(kindName)
	if err != nil {
		return err
	}
	data, err := readGPXFile(gpxFile)
	if err != nil {
		return err
	}

	w, track, err := c.service.Import(ctx, data, kind, cadence)
	if w.ID == "" {
		return err
	}

	fmt.Fprintln(c.writer, listview.Format(w))
	for i, s := range track.Splits {
		fmt.Fprintf(c.writer, "  km %d: %.0fm in %s\n", i+1, s.Distance, time.Duration(s.SplitTime*float64(time.Second)).Round(time.Second))
	}
	fmt.Fprintln(c.writer, "Workout imported successfully")
	return err
}

func (c *CLI) ExportGPX() error {
	fs := c.flags()
	var out string
	fs.StringVar(&out, "out", "-", "output file, - for stdout")
	if err := fs.Parse(c.args[1:]); err != nil {
		return err
	}

	if !c.service.Coordinator().MapReady() {
		return errors.New("map is not available, set MAPTY_HOME_LAT and MAPTY_HOME_LNG")
	}
	if out == "-" {
		return c.service.Layer().WriteGPX(c.writer)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.service.Layer().WriteGPX(f); err != nil {
		return err
	}
	fmt.Fprintf(c.writer, "Wrote %d markers to %s\n", len(c.service.Layer().Markers()), out)
	return nil
}

func (c *CLI) RunAPI(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if err := c.service.Coordinator().Restore(ctx); err != nil {
		return err
	}
	go func() {
		if err := c.service.LoadMap(ctx); err != nil {
			c.logger.Error("Error loading map", slog.Any("error", err))
		}
	}()

	mux := NewAPI(c.logger, c.service, c.api, c.gatherer)

	server := &http.Server{
		Addr:    c.api.Addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		c.logger.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("Error shutting down server", slog.Any("error", err))
		}
	}()

	c.logger.Info("Starting server", slog.String("addr", c.api.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		c.logger.Error("Error starting server", slog.Any("error", err))
		cancel()
		return err
	}

	return nil
}

func readGPXFile(gpxFile string) ([]byte, error) {
	info, err := os.Stat(gpxFile)
	if err != nil {
		return nil, fmt.Errorf("error reading gpx file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("gpx file is a directory")
	}

	return os.ReadFile(gpxFile)
}
