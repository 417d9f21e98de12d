// fake_device simulates aquarium microcontrollers pushing readings to
// the ingest endpoint. It can optionally seed the sensors table first
// so the pushed keys resolve.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn         string
	baseURL     string
	sensorCount int
	interval    time.Duration
	duration    time.Duration
	seed        bool
	usePost     bool
}

type device struct {
	apiKey string
	kind   string
	value  float64
	min    float64
	max    float64
}

func main() {
	cfg := parseConfig()
	if cfg.baseURL == "" {
		log.Fatal("base-url is required")
	}
	if cfg.sensorCount <= 0 {
		log.Fatal("sensors must be > 0")
	}

	ctx := context.Background()
	devices := buildDevices(cfg.sensorCount)

	if cfg.seed {
		if cfg.dsn == "" {
			log.Fatal("dsn is required when seed is enabled")
		}
		db, err := sql.Open("pgx", cfg.dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		if err := seedSensors(ctx, db, devices); err != nil {
			log.Fatalf("seed sensors: %v", err)
		}
		log.Printf("seeded %d sensors", len(devices))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	deadline := time.Now().Add(cfg.duration)
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	log.Printf("pushing readings: sensors=%d interval=%s duration=%s", len(devices), cfg.interval, cfg.duration)
	for time.Now().Before(deadline) {
		for i := range devices {
			pushReading(client, cfg, &devices[i])
		}
		<-ticker.C
	}
	log.Print("done")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "dsn", "", "postgres dsn for seeding")
	flag.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "ingest base url")
	flag.IntVar(&cfg.sensorCount, "sensors", 4, "number of simulated sensors")
	flag.DurationVar(&cfg.interval, "interval", 10*time.Second, "push interval")
	flag.DurationVar(&cfg.duration, "duration", time.Hour, "how long to run")
	flag.BoolVar(&cfg.seed, "seed", false, "insert sensors before pushing")
	flag.BoolVar(&cfg.usePost, "post", false, "push with POST form instead of GET")
	flag.Parse()
	return cfg
}

func buildDevices(count int) []device {
	devices := make([]device, 0, count)
	for i := 0; i < count; i++ {
		if i%4 == 3 {
			devices = append(devices, device{apiKey: uuid.NewString(), kind: "float", value: 1})
			continue
		}
		min := 22.0 + float64(i)
		max := min + 5
		devices = append(devices, device{
			apiKey: uuid.NewString(),
			kind:   "value",
			value:  (min + max) / 2,
			min:    min,
			max:    max,
		})
	}
	return devices
}

func seedSensors(ctx context.Context, db *sql.DB, devices []device) error {
	now := time.Now().UTC()
	for i, dev := range devices {
		var minValue, maxValue, okValue any
		if dev.kind == "value" {
			minValue, maxValue = dev.min, dev.max
		} else {
			okValue = 1.0
		}
		_, err := db.ExecContext(ctx, `
INSERT INTO sensors (id, name, unit, kind, min_value, max_value, ok_value, alerts_enabled, api_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, $9, $9)
ON CONFLICT (id) DO NOTHING`,
			"sensor-sim-"+strconv.Itoa(i),
			fmt.Sprintf("Simulated %s %d", dev.kind, i),
			"C",
			dev.kind,
			minValue,
			maxValue,
			okValue,
			dev.apiKey,
			now,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func pushReading(client *http.Client, cfg config, dev *device) {
	step(dev)
	target := fmt.Sprintf("%s/data/%s/%s", cfg.baseURL, dev.apiKey, strconv.FormatFloat(dev.value, 'f', 2, 64))

	var resp *http.Response
	var err error
	if cfg.usePost {
		form := url.Values{"value": {strconv.FormatFloat(dev.value, 'f', 2, 64)}}
		resp, err = client.PostForm(cfg.baseURL+"/data/"+dev.apiKey, form)
	} else {
		resp, err = client.Get(target)
	}
	if err != nil {
		log.Printf("push %s: %v", dev.apiKey, err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("push %s: status %d", dev.apiKey, resp.StatusCode)
	}
}

// step applies a small random walk, occasionally wandering out of
// bounds so alerts fire.
func step(dev *device) {
	if dev.kind == "float" {
		if rand.Float64() < 0.05 {
			dev.value = 1 - dev.value
		}
		return
	}
	dev.value += (rand.Float64() - 0.5) * 0.8
	lower := dev.min - 2
	upper := dev.max + 2
	if dev.value < lower {
		dev.value = lower
	}
	if dev.value > upper {
		dev.value = upper
	}
}
