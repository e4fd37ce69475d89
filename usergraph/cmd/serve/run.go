/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package serve runs the usergraph HTTP server. One port carries:
//
//	/graphql                   GraphQL over GET and POST
//	/playground                the GraphQL playground, when enabled
//	/users, /posts, /profiles  JSON routes
//	/member-types
//	/debug/prometheus_metrics  metrics
//	/z                         opencensus zpages
package serve

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/gqlgen/graphql/playground"
	"github.com/dgraph-io/ristretto/v2/z"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opencensus.io/trace"
	"go.opencensus.io/zpages"

	"github.com/hypermodeinc/usergraph/graphql/api"
	"github.com/hypermodeinc/usergraph/graphql/resolve"
	"github.com/hypermodeinc/usergraph/graphql/schema"
	"github.com/hypermodeinc/usergraph/graphql/web"
	"github.com/hypermodeinc/usergraph/rest"
	"github.com/hypermodeinc/usergraph/service"
	"github.com/hypermodeinc/usergraph/store"
	"github.com/hypermodeinc/usergraph/x"
)

const (
	graphqlDefaults = `max-depth=6; playground=true; debug=false;`
	seedDefaults    = `users=0; posts=2; rand-seed=0;`
)

// Serve is the sub-command invoked when running "usergraph serve".
var Serve x.SubCommand

func init() {
	Serve.Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the usergraph GraphQL and REST API",
		Run: func(cmd *cobra.Command, args []string) {
			defer x.StartProfile(Serve.Conf).Stop()
			if err := run(); err != nil {
				if glog.V(2) {
					fmt.Printf("Error : %+v\n", err)
				} else {
					fmt.Printf("Error : %s\n", err)
				}
				os.Exit(1)
			}
		},
	}
	Serve.EnvPrefix = "USERGRAPH_SERVE"

	flags := Serve.Cmd.Flags()
	flags.IntP("port", "p", 8000, "Port on which to run the HTTP service")
	flags.String("body_limit", "4MB",
		"Largest request body accepted, in human readable units such as 512KB or 4MB")

	// OpenCensus flags.
	flags.Float64("trace", 0.01, "The ratio of queries to trace.")

	flags.String("graphql", graphqlDefaults, z.NewSuperFlagHelp(graphqlDefaults).
		Head("GraphQL options").
		Flag("max-depth",
			"The deepest selection an operation may make. Deeper operations are rejected "+
				"before anything is resolved.").
		Flag("playground",
			"Serve the GraphQL playground at /playground.").
		Flag("debug",
			"Report the request id, operation depth and loader batches in the extensions "+
				"of every response.").
		String())

	flags.String("seed", seedDefaults, z.NewSuperFlagHelp(seedDefaults).
		Head("Development data").
		Flag("users",
			"Number of fake users created at startup, each with a profile.").
		Flag("posts",
			"Number of posts created for each fake user.").
		Flag("rand-seed",
			"Seed of the fake data generator. 0 picks a seed from the clock.").
		String())
}

// options is the parsed form of the serve flags.
type options struct {
	maxDepth   int
	playground bool
	debug      bool
	bodyLimit  int64
}

func parseOptions() (options, error) {
	gqlConf := z.NewSuperFlag(Serve.Conf.GetString("graphql")).MergeAndCheckDefault(
		graphqlDefaults)
	bodyLimit, err := humanize.ParseBytes(Serve.Conf.GetString("body_limit"))
	if err != nil {
		return options{}, errors.Wrapf(err, "while parsing --body_limit")
	}
	opts := options{
		maxDepth:   int(gqlConf.GetInt64("max-depth")),
		playground: gqlConf.GetBool("playground"),
		debug:      gqlConf.GetBool("debug"),
		bodyLimit:  int64(bodyLimit),
	}
	if opts.maxDepth <= 0 {
		return options{}, errors.Errorf("max-depth must be positive, got %d", opts.maxDepth)
	}
	return opts, nil
}

func seed(ctx context.Context, svc *service.Service) error {
	seedConf := z.NewSuperFlag(Serve.Conf.GetString("seed")).MergeAndCheckDefault(
		seedDefaults)
	users := int(seedConf.GetInt64("users"))
	if users <= 0 {
		return nil
	}
	randSeed := seedConf.GetInt64("rand-seed")
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}

	n, err := svc.Seed(ctx, users, int(seedConf.GetInt64("posts")),
		rand.New(rand.NewSource(randSeed)))
	if err != nil {
		return errors.Wrapf(err, "while seeding %d users", users)
	}
	glog.Infof("Seeded %d users (rand-seed %d)", n, randSeed)
	return nil
}

// newApp builds the fiber app serving every route of svc.
func newApp(svc *service.Service, opts options) (*fiber.App, error) {
	sch, err := schema.Default(schema.WithMaxDepth(opts.maxDepth))
	if err != nil {
		return nil, err
	}
	resolver := resolve.New(sch, svc, resolve.WithDebug(opts.debug))
	gqlServer := web.NewServer(resolver, web.WithBodyLimit(opts.bodyLimit))

	metrics, err := x.NewMetricsHandler("usergraph")
	if err != nil {
		return nil, errors.Wrapf(err, "while creating the metrics exporter")
	}
	zmux := http.NewServeMux()
	zpages.Handle(zmux, "/z")

	app := fiber.New(fiber.Config{
		AppName:               "usergraph",
		BodyLimit:             int(opts.bodyLimit),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	// The GraphQL handler writes its own CORS and content headers, so it goes
	// ahead of the cors middleware.
	app.All("/graphql", adaptor.HTTPHandler(gqlServer.HTTPHandler()))
	if opts.playground {
		app.Get("/playground", adaptor.HTTPHandlerFunc(playground.Handler("usergraph", "/graphql")))
	}
	app.Get("/debug/prometheus_metrics", adaptor.HTTPHandler(metrics))
	app.Get("/z/*", adaptor.HTTPHandler(zmux))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, " + api.RequestIDHeader,
		ExposeHeaders: api.RequestIDHeader,
	}))
	rest.NewHandler(svc).RegisterRoutes(app)
	return app, nil
}

func run() error {
	x.PrintVersion()

	opts, err := parseOptions()
	if err != nil {
		return err
	}

	svc := service.New(store.New())
	if err := seed(context.Background(), svc); err != nil {
		return err
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler:             trace.ProbabilitySampler(Serve.Conf.GetFloat64("trace")),
		MaxAnnotationEventsPerSpan: 256,
	})

	app, err := newApp(svc, opts)
	if err != nil {
		return err
	}

	sdCh := make(chan os.Signal, 1)
	signal.Notify(sdCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sdCh
		glog.Infof("Shutting down...")
		if err := app.Shutdown(); err != nil {
			glog.Errorf("Error while shutting down: %v", err)
		}
	}()

	bind := "localhost"
	if Serve.Conf.GetBool("bindall") {
		bind = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", bind, Serve.Conf.GetInt("port"))

	glog.Infof("Bringing up GraphQL HTTP API at %s/graphql (max depth %d)", addr, opts.maxDepth)
	if opts.playground {
		glog.Infof("GraphQL playground at %s/playground", addr)
	}
	glog.Infof("Bringing up REST API at %s/users, /posts, /profiles, /member-types", addr)
	return errors.Wrap(app.Listen(addr), "usergraph server failed")
}
