package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/moatus/cvc/audit"
	"github.com/moatus/cvc/jwt"
	"github.com/moatus/cvc/keys"
)

var (
	algFlag = &cli.StringFlag{
		Name:  "alg",
		Usage: "JWS algorithm (defaults to the one for --curve)",
	}
	kidFlag = &cli.StringFlag{
		Name:  "kid",
		Usage: "Key id header (defaults to the key's JWK thumbprint)",
	}

	jwtCommand = &cli.Command{
		Name:  "jwt",
		Usage: "Issue and verify JSON Web Tokens",
		Subcommands: []*cli.Command{
			jwtEncodeCommand,
			jwtDecodeCommand,
		},
	}
	jwtEncodeCommand = &cli.Command{
		Name:  "encode",
		Usage: "Signs claims into a compact token",
		Flags: []cli.Flag{
			curveFlag,
			keyFileFlag,
			algFlag,
			kidFlag,
			&cli.StringFlag{Name: "claims", Usage: "JSON object of extra claims", Value: "{}"},
			&cli.StringFlag{Name: "iss", Usage: "Issuer claim"},
			&cli.StringFlag{Name: "sub", Usage: "Subject claim"},
			&cli.StringSliceFlag{Name: "aud", Usage: "Audience claim (repeatable)"},
			&cli.DurationFlag{Name: "exp", Usage: "Lifetime of the token", Value: time.Hour},
			&cli.BoolFlag{Name: "jti", Usage: "Add a random token id"},
		},
		Action: encodeJWT,
	}
	jwtDecodeCommand = &cli.Command{
		Name:      "decode",
		Usage:     "Verifies a token and prints its claims",
		ArgsUsage: "[token]",
		Flags: []cli.Flag{
			curveFlag,
			configFlag,
			&cli.StringFlag{Name: "pub", Usage: "Hex public key"},
			&cli.PathFlag{Name: "jwks", Usage: "JWK set file, keys are chosen by kid"},
			&cli.PathFlag{Name: "secret", Usage: "File holding a hex HS256 secret"},
		},
		Action: decodeJWT,
	}
)

func readHexFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimSpace(string(data)))
}

func encodeJWT(ctx *cli.Context) error {
	c, err := curveArg(ctx)
	if err != nil {
		return err
	}
	var alg jwt.Algorithm
	if name := ctx.String(algFlag.Name); name != "" {
		alg, err = jwt.ParseAlgorithm(name)
	} else {
		alg, err = jwt.AlgorithmForCurve(c)
	}
	if err != nil {
		return err
	}

	header := jwt.Header{Algorithm: alg, Type: jwt.TypeJWT, KeyID: ctx.String(kidFlag.Name)}
	var key interface{}
	if alg == jwt.HS256 {
		secret, err := readHexFile(ctx.Path(keyFileFlag.Name))
		if err != nil {
			return err
		}
		key = secret
	} else {
		k, err := loadKey(ctx.Path(keyFileFlag.Name), c)
		if err != nil {
			return err
		}
		defer k.Zeroize()
		if header.KeyID == "" {
			header.KeyID = k.Public().JWK().KeyID
		}
		key = k
	}

	claims := jwt.NewClaims()
	if err := json.Unmarshal([]byte(ctx.String("claims")), claims); err != nil {
		return fmt.Errorf("invalid --claims: %w", err)
	}
	now := time.Now()
	claims.SetIssuedAt(now)
	if exp := ctx.Duration("exp"); exp > 0 {
		claims.SetExpiration(now.Add(exp))
	}
	if iss := ctx.String("iss"); iss != "" {
		claims.SetIssuer(iss)
	}
	if sub := ctx.String("sub"); sub != "" {
		claims.SetSubject(sub)
	}
	if aud := ctx.StringSlice("aud"); len(aud) > 0 {
		claims.SetAudience(aud...)
	}
	if ctx.Bool("jti") {
		claims.SetID(uuid.NewString())
	}

	enc := jwt.NewEncoder(jwt.WithIssueAudit(audit.NewLogHandler(log)), jwt.WithIssueClock(time.Now))
	token, err := enc.Encode(header, claims, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, token)
	return nil
}

func resolverArg(ctx *cli.Context) (jwt.KeyResolver, error) {
	switch {
	case ctx.IsSet("jwks"):
		data, err := os.ReadFile(ctx.Path("jwks"))
		if err != nil {
			return nil, err
		}
		set, err := keys.ParseJWKSet(data)
		if err != nil {
			return nil, err
		}
		return jwt.KeySetFromJWKS(set)
	case ctx.IsSet("pub"):
		c, err := curveArg(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := hexArg(ctx, "pub")
		if err != nil {
			return nil, err
		}
		pub, err := keys.ParsePublicKey(c, raw)
		if err != nil {
			return nil, err
		}
		return jwt.StaticResolver{Key: pub}, nil
	case ctx.IsSet("secret"):
		secret, err := readHexFile(ctx.Path("secret"))
		if err != nil {
			return nil, err
		}
		return jwt.StaticResolver{Key: secret}, nil
	default:
		return nil, errors.New("one of --pub, --jwks or --secret is required")
	}
}

func decodeJWT(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx.Path(configFlag.Name))
	if err != nil {
		return err
	}
	policy, err := cfg.policy()
	if err != nil {
		return err
	}
	resolver, err := resolverArg(ctx)
	if err != nil {
		return err
	}

	token := ctx.Args().Get(0)
	if ctx.NArg() == 0 {
		raw, err := io.ReadAll(ctx.App.Reader)
		if err != nil {
			return err
		}
		token = string(raw)
	}

	dec, err := jwt.NewDecoder(policy, resolver, jwt.WithAuditHandler(audit.NewLogHandler(log)), jwt.WithClock(time.Now))
	if err != nil {
		return err
	}
	tok, err := dec.Decode(context.Background(), strings.TrimSpace(token), time.Now())
	if err != nil {
		return err
	}

	out := json.NewEncoder(ctx.App.Writer)
	out.SetIndent("", "  ")
	return out.Encode(tok.Claims)
}
