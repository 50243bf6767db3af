package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/moatus/cvc"
	"github.com/moatus/cvc/audit"
	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/keys"
)

var (
	keyCommand = &cli.Command{
		Name:  "key",
		Usage: "Operations on key files",
		Subcommands: []*cli.Command{
			keyGenerateCommand,
			keyPublicCommand,
		},
	}
	keyGenerateCommand = &cli.Command{
		Name:      "generate",
		Usage:     "Generates a private key file and prints the public key",
		ArgsUsage: "keyfile",
		Flags:     []cli.Flag{curveFlag},
		Action:    genkey,
	}
	keyPublicCommand = &cli.Command{
		Name:      "public",
		Usage:     "Prints the public key of a key file",
		ArgsUsage: "keyfile",
		Flags: []cli.Flag{curveFlag, &cli.BoolFlag{
			Name:  "jwk",
			Usage: "Print a JSON Web Key instead of hex",
		}},
		Action: keyPublic,
	}
	signCommand = &cli.Command{
		Name:   "sign",
		Usage:  "Signs a message and prints the hex signature",
		Flags:  []cli.Flag{curveFlag, keyFileFlag, messageFlag, schnorrFlag},
		Action: sign,
	}
	verifyCommand = &cli.Command{
		Name:  "verify",
		Usage: "Verifies a hex signature",
		Flags: []cli.Flag{
			curveFlag,
			messageFlag,
			&cli.StringFlag{Name: "pub", Usage: "Hex public key", Required: true},
			&cli.StringFlag{Name: "sig", Usage: "Hex signature", Required: true},
			schnorrFlag,
		},
		Action: verify,
	}
	ecdhCommand = &cli.Command{
		Name:  "ecdh",
		Usage: "Computes a shared secret with a peer public key",
		Flags: []cli.Flag{
			curveFlag,
			keyFileFlag,
			&cli.StringFlag{Name: "peer", Usage: "Hex peer public key", Required: true},
			&cli.IntFlag{Name: "derive", Usage: "Derive this many bytes with HKDF-SHA256 instead of printing the raw secret"},
			&cli.StringFlag{Name: "salt", Usage: "HKDF salt"},
			&cli.StringFlag{Name: "info", Usage: "HKDF info"},
		},
		Action: ecdh,
	}
)

func curveArg(ctx *cli.Context) (cvc.Curve, error) {
	return curve.ParseType(ctx.String(curveFlag.Name))
}

func loadKey(path string, c cvc.Curve) (*cvc.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("key file %s is not hex: %v", path, err)
	}
	defer curve.ZeroizeBytes(raw)
	return cvc.ParsePrivateKey(c, raw)
}

func saveKey(path string, k *cvc.PrivateKey) error {
	raw, err := k.Bytes()
	if err != nil {
		return err
	}
	defer curve.ZeroizeBytes(raw)
	return os.WriteFile(path, []byte(hex.EncodeToString(raw)+"\n"), 0600)
}

func hexArg(ctx *cli.Context, name string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(ctx.String(name), "0x"))
	if err != nil {
		return nil, fmt.Errorf("--%s is not hex: %v", name, err)
	}
	return b, nil
}

func message(ctx *cli.Context) ([]byte, error) {
	if ctx.IsSet(messageFlag.Name) {
		return []byte(ctx.String(messageFlag.Name)), nil
	}
	return io.ReadAll(ctx.App.Reader)
}

func genkey(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need key file as argument")
	}
	file := ctx.Args().Get(0)
	c, err := curveArg(ctx)
	if err != nil {
		return err
	}

	kp, err := cvc.GenerateKeyPair(c, rand.Reader)
	if err != nil {
		return fmt.Errorf("could not generate key: %w", err)
	}
	defer kp.Zeroize()
	if err := saveKey(file, kp.Private); err != nil {
		return err
	}

	jwk := kp.Public.JWK()
	audit.NewLogHandler(log).OnKeyGenerated(audit.NewEventBuilder(audit.EventKeyGenerated, time.Now()).
		WithCurve(string(c)).
		WithKeyID(jwk.KeyID).
		WithMetadata("file", file).
		Build())

	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(kp.Public.Bytes()))
	return nil
}

func keyPublic(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need key file as argument")
	}
	c, err := curveArg(ctx)
	if err != nil {
		return err
	}
	k, err := loadKey(ctx.Args().Get(0), c)
	if err != nil {
		return err
	}
	defer k.Zeroize()

	if ctx.Bool("jwk") {
		enc := json.NewEncoder(ctx.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(k.Public().JWK())
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(k.Public().Bytes()))
	return nil
}

func sign(ctx *cli.Context) error {
	c, err := curveArg(ctx)
	if err != nil {
		return err
	}
	k, err := loadKey(ctx.Path(keyFileFlag.Name), c)
	if err != nil {
		return err
	}
	defer k.Zeroize()
	msg, err := message(ctx)
	if err != nil {
		return err
	}

	signer := cvc.HashAndSign
	if ctx.Bool(schnorrFlag.Name) {
		signer = cvc.SignSchnorr
	}
	sig, err := signer(msg, k)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"curve": c, "schnorr": ctx.Bool(schnorrFlag.Name)}).Debug("message signed")
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(sig))
	return nil
}

func verify(ctx *cli.Context) error {
	c, err := curveArg(ctx)
	if err != nil {
		return err
	}
	rawPub, err := hexArg(ctx, "pub")
	if err != nil {
		return err
	}
	pub, err := cvc.ParsePublicKey(c, rawPub)
	if err != nil {
		return err
	}
	sig, err := hexArg(ctx, "sig")
	if err != nil {
		return err
	}
	msg, err := message(ctx)
	if err != nil {
		return err
	}

	verifier := cvc.Verify
	if ctx.Bool(schnorrFlag.Name) {
		verifier = cvc.VerifySchnorr
	}
	if err := verifier(msg, sig, pub); err != nil {
		log.WithError(err).Warn("signature rejected")
		return err
	}
	fmt.Fprintln(ctx.App.Writer, "valid")
	return nil
}

func ecdh(ctx *cli.Context) error {
	c, err := curveArg(ctx)
	if err != nil {
		return err
	}
	k, err := loadKey(ctx.Path(keyFileFlag.Name), c)
	if err != nil {
		return err
	}
	defer k.Zeroize()
	rawPeer, err := hexArg(ctx, "peer")
	if err != nil {
		return err
	}
	peer, err := cvc.ParsePublicKey(c, rawPeer)
	if err != nil {
		return err
	}

	secret, err := cvc.DeriveSharedSecret(k, peer)
	if err != nil {
		return err
	}
	defer secret.Zeroize()

	out := []byte(secret)
	if n := ctx.Int("derive"); n > 0 {
		if out, err = keys.DeriveKey(secret, []byte(ctx.String("salt")), []byte(ctx.String("info")), n); err != nil {
			return err
		}
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(out))
	return nil
}
