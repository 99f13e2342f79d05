// sessionprobe logs into a MaxiTaxi backend, optionally hits a protected
// endpoint through the encrypted channel, and dumps the engine metrics.
// Useful for smoke-testing a deployment or a mock server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	maxitaxi "github.com/JakubNatonek/MaxiTaxi-sub000"
	"github.com/JakubNatonek/MaxiTaxi-sub000/configfile"
)

func main() {
	var (
		configDir = flag.String("config-dir", ".", "directory containing maxitaxi.yaml")
		email     = flag.String("email", "", "account email")
		password  = flag.String("password", "", "account password")
		probe     = flag.String("probe", "", "protected endpoint to GET after login (optional)")
		linger    = flag.Duration("linger", 0, "keep the session clock running this long after login")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "email and password are required")
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := configfile.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	engine, err := maxitaxi.New().
		WithConfig(cfg).
		WithLogger(log).
		WithAuthListener(func(authenticated bool) {
			log.Info().Bool("authenticated", authenticated).Msg("session transition")
		}).
		Build()
	if err != nil {
		log.Fatal().Err(err).Msg("build engine")
	}
	defer engine.Close()

	run := uuid.NewString()
	ctx := maxitaxi.WithRequestID(context.Background(), run)
	log.Info().Str("run", run).Str("base_url", cfg.BaseURL).Msg("probing")

	if err := engine.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start engine")
	}

	sess, err := engine.Login(ctx, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("login")
	}
	log.Info().
		Int64("user", sess.Claims.SubjectID).
		Str("role", sess.Role().String()).
		Time("expires", sess.Claims.ExpiresAt()).
		Msg("logged in")

	if *probe != "" {
		resp, err := engine.Get(ctx, *probe)
		if err != nil {
			log.Fatal().Err(err).Str("endpoint", *probe).Msg("probe")
		}
		log.Info().
			Str("endpoint", *probe).
			Int("status", resp.StatusCode).
			Bool("encrypted", resp.Encrypted).
			Msg("probe ok")
		if len(resp.Body) > 0 {
			fmt.Println(string(resp.Body))
		} else {
			fmt.Println(resp.Text)
		}
	}

	if *linger > 0 {
		log.Info().Dur("linger", *linger).Msg("letting the session clock run")
		time.Sleep(*linger)
	}

	printMetrics(engine.MetricsSnapshot())
}

func printMetrics(snap maxitaxi.MetricsSnapshot) {
	ids := make([]maxitaxi.MetricID, 0, len(snap.Counters))
	for id := range snap.Counters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Println("metrics:")
	for _, id := range ids {
		fmt.Printf("  %-28s %d\n", id, snap.Counters[id])
	}
}
