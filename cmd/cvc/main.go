// Command cvc generates keys, signs and verifies messages, runs ECDH and
// issues or checks JWTs from the command line.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Log level (panic, fatal, error, warn, info, debug, trace)",
		Value: "warn",
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log.format",
		Usage: "Log format (text or json)",
		Value: "text",
	}
	curveFlag = &cli.StringFlag{
		Name:    "curve",
		Aliases: []string{"c"},
		Usage:   "Curve: Ed25519, P-256 or secp256k1",
		Value:   "Ed25519",
	}
	keyFileFlag = &cli.PathFlag{
		Name:     "key",
		Usage:    "File holding a hex private key",
		Required: true,
	}
	messageFlag = &cli.StringFlag{
		Name:  "message",
		Usage: "Message to sign or verify (read from stdin when empty)",
	}
	schnorrFlag = &cli.BoolFlag{
		Name:  "schnorr",
		Usage: "Use EdDSA-style Schnorr signatures instead of ECDSA on P-256 and secp256k1",
	}
)

// log is configured by the app's Before hook.
var log = logrus.New()

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      filepath.Base(os.Args[0]),
		Usage:     "elliptic-curve signing, ECDH and JWT tool",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     []cli.Flag{verbosityFlag, logFormatFlag},
		Before:    setupLogging,
		Commands: []*cli.Command{
			keyCommand,
			signCommand,
			verifyCommand,
			ecdhCommand,
			jwtCommand,
			configCommand,
		},
	}
}

func setupLogging(ctx *cli.Context) error {
	level, err := logrus.ParseLevel(ctx.String(verbosityFlag.Name))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(ctx.App.ErrWriter)

	switch ctx.String(logFormatFlag.Name) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", ctx.String(logFormatFlag.Name))
	}
	return nil
}

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
