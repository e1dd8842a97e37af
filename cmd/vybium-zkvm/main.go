// Command vybium-zkvm proves and verifies the bundled guest programs.
package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/vybium/vybium-zkvm/examples/fibonacci"
	zkvm "github.com/vybium/vybium-zkvm/pkg/vybium-zkvm"
)

var programs = map[string]*zkvm.Program{
	"fibonacci": fibonacci.Program,
}

func main() {
	app := &cli.App{
		Name:  "vybium-zkvm",
		Usage: "prove and verify guest program runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "log-level", Usage: "override the configured log level"},
			&cli.BoolFlag{Name: "dev", Usage: "use the dev backend and accept dev seals"},
		},
		Commands: []*cli.Command{
			{
				Name:      "image-id",
				Usage:     "print the image ID of a bundled program",
				ArgsUsage: "<program>",
				Action:    imageID,
			},
			{
				Name:  "prove",
				Usage: "prove a Fibonacci run and write the receipt",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "iter", Value: 9, Usage: "Fibonacci iterations"},
					&cli.StringFlag{Name: "out", Value: "receipt.cbor", Usage: "receipt output file"},
					&cli.StringFlag{Name: "vk-out", Usage: "write the groth16 verifying key here"},
				},
				Action: prove,
			},
			{
				Name:  "verify",
				Usage: "verify a Fibonacci receipt and print its journal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "receipt", Value: "receipt.cbor", Usage: "receipt file"},
					&cli.StringFlag{Name: "vk", Usage: "groth16 verifying key file"},
				},
				Action: verify,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*zkvm.Config, error) {
	cfg := zkvm.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = zkvm.LoadConfig(path); err != nil {
			return nil, err
		}
	} else if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if c.Bool("dev") {
		cfg.WithBackend("dev").WithDevMode(true)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.WithLogLevel(lvl)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *zkvm.Config) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.Level()).
		With().Timestamp().
		Logger()
}

// iterations checks that n fits the guest's 32-bit iteration count.
func iterations(n uint64) (uint32, error) {
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("iter %d out of range (max %d)", n, uint64(math.MaxUint32))
	}
	return uint32(n), nil
}

func imageID(c *cli.Context) error {
	name := c.Args().First()
	p, ok := programs[name]
	if !ok {
		return fmt.Errorf("unknown program %q", name)
	}
	id, err := p.ImageID()
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func prove(c *cli.Context) error {
	iter, err := iterations(c.Uint64("iter"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	bar := progressbar.NewOptions(3,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("setup"),
	)
	z, err := zkvm.New(cfg, zkvm.WithLogger(log), zkvm.WithObserver(func(s zkvm.Stage) {
		bar.Describe(s.String())
		_ = bar.Add(1)
	}))
	if err != nil {
		return err
	}

	r, err := fibonacci.Prove(context.Background(), z, iter)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
		return err
	}
	log.Info().Str("path", c.String("out")).Int("bytes", len(data)).Msg("receipt written")

	if path := c.String("vk-out"); path != "" {
		var vk bytes.Buffer
		if err := z.WriteVerifyingKey(&vk); err != nil {
			return err
		}
		if err := os.WriteFile(path, vk.Bytes(), 0o644); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("verifying key written")
	}
	return nil
}

func verify(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	data, err := os.ReadFile(c.String("receipt"))
	if err != nil {
		return err
	}
	r, err := zkvm.DecodeReceipt(data)
	if err != nil {
		return err
	}

	var v *zkvm.Verifier
	if path := c.String("vk"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		v, err = zkvm.NewVerifier(cfg, f)
		if err != nil {
			return err
		}
	} else if v, err = zkvm.NewVerifier(cfg, nil); err != nil {
		return err
	}
	v.WithLogger(log)

	fib, err := fibonacci.Verify(v, r)
	if err != nil {
		return err
	}
	log.Info().Str("backend", string(r.Seal().Kind)).Msg("receipt verified")
	fmt.Println(fib)
	return nil
}
