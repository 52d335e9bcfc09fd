package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Leganyst/booking-core/internal/booking"
	"github.com/Leganyst/booking-core/internal/calendar"
)

const (
	SnapshotDB     = "db"
	SnapshotRedis  = "redis"
	SnapshotMemory = "memory"
	SnapshotNone   = "none"
)

type App struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// Network
	GRPCAddr string `envconfig:"CORE_GRPC_ADDR" default:":50051"`
	HTTPAddr string `envconfig:"CORE_HTTP_ADDR" default:":8080"`

	// Snapshot
	SnapshotBackend string `envconfig:"SNAPSHOT_BACKEND" default:"db"`
	SnapshotKey     string `envconfig:"SNAPSHOT_KEY" default:"booking-core:snapshot"`

	// Redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// RabbitMQ; пустой URL выключает публикацию
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"booking.events"`

	// Booking
	ReservationTTL  time.Duration `envconfig:"RESERVATION_TTL" default:"5m"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"60s"`
	CalendarTZ      string        `envconfig:"CALENDAR_TZ" default:"UTC"`
	SlotStart       string        `envconfig:"SLOT_START" default:"09:00"`
	SlotEnd         string        `envconfig:"SLOT_END" default:"17:00"`
	SlotIntervalMin int           `envconfig:"SLOT_INTERVAL_MIN" default:"30"`
	DaysAhead       int           `envconfig:"DAYS_AHEAD" default:"14"`
	PublishTimeout  time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"5s"`
}

func Load() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("process env: %w", err)
	}
	return c, c.Validate()
}

func (c App) IsProduction() bool { return c.Env == "production" }

func (c App) Validate() error {
	switch c.SnapshotBackend {
	case SnapshotDB, SnapshotRedis, SnapshotMemory, SnapshotNone:
	default:
		return fmt.Errorf("invalid config: unknown snapshot backend %q", c.SnapshotBackend)
	}
	if c.ReservationTTL <= 0 {
		return fmt.Errorf("invalid config: reservation ttl must be positive")
	}
	if c.DaysAhead <= 0 || c.DaysAhead > booking.MaxDaysAhead {
		return fmt.Errorf("invalid config: days ahead must be 1..%d", booking.MaxDaysAhead)
	}
	if c.PublishTimeout <= 0 {
		return fmt.Errorf("invalid config: publish timeout must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Grid(); err != nil {
		return err
	}
	return nil
}

// Location — пояс, в котором считается "сегодня".
func (c App) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.CalendarTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid config: calendar tz %q: %w", c.CalendarTZ, err)
	}
	return loc, nil
}

// SlotWindow — рабочее окно дня [start, end).
func (c App) SlotWindow() (calendar.TimeOfDay, calendar.TimeOfDay, error) {
	start, err := calendar.ParseTimeOfDay(c.SlotStart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid config: slot start: %w", err)
	}
	end, err := calendar.ParseTimeOfDay(c.SlotEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid config: slot end: %w", err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("invalid config: slot start %s must be before end %s", start, end)
	}
	return start, end, nil
}

// Grid — сетка слотов: рабочее окно и шаг.
func (c App) Grid() (calendar.Grid, error) {
	start, end, err := c.SlotWindow()
	if err != nil {
		return calendar.Grid{}, err
	}
	g := calendar.Grid{Start: start, End: end, IntervalMinutes: c.SlotIntervalMin}
	if err := g.Validate(); err != nil {
		return calendar.Grid{}, fmt.Errorf("invalid config: %w", err)
	}
	return g, nil
}
