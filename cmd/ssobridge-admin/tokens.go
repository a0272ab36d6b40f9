package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xwanai/shopify-sso-bridge/internal/bootstrap"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
	"github.com/xwanai/shopify-sso-bridge/internal/ssotoken"
)

type tokenMintOptions struct {
	Email      string
	FirstName  string
	LastName   string
	CustomerID string
	ReturnTo   string
	RawJSON    bool
}

type tokenInspectOptions struct {
	Token   string
	RawJSON bool
}

func runTokenMint(cmdCtx *commandContext, args []string) error {
	opts, err := parseTokenMintFlags(args)
	if err != nil {
		return err
	}

	codec, err := bootstrap.BuildCodec(cmdCtx.Config.SSO)
	if err != nil {
		return fmt.Errorf("build token codec: %w", err)
	}

	claim := ssotoken.Claim{
		Email:             opts.Email,
		FirstName:         opts.FirstName,
		LastName:          opts.LastName,
		ShopifyCustomerID: opts.CustomerID,
		ReturnTo:          opts.ReturnTo,
	}

	minted, err := mintToken(cmdCtx, codec, claim)
	if err != nil {
		return err
	}

	if opts.RawJSON {
		return printMintedTokenJSON(minted)
	}
	return printMintedToken(minted)
}

type mintedToken struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	LoginURL  string    `json:"login_url,omitempty"`
}

func mintToken(cmdCtx *commandContext, codec *ssotoken.Codec, claim ssotoken.Claim) (mintedToken, error) {
	issuer, err := service.NewTokenIssuer(service.TokenIssuerOptions{
		Codec:            codec,
		PartnerBaseURL:   cmdCtx.Config.SSO.PartnerBaseURL,
		PartnerLoginPath: cmdCtx.Config.SSO.PartnerLoginPath,
		ShopDomain:       cmdCtx.Config.Shopify.ShopDomain,
		Logger:           cmdCtx.Logger,
	})
	if err != nil {
		return mintedToken{}, fmt.Errorf("build token issuer: %w", err)
	}

	// Without a configured partner the token is still printable; only the
	// login URL is unavailable.
	if cmdCtx.Config.SSO.PartnerBaseURL == "" {
		res, issueErr := issuer.Issue(claim)
		if issueErr != nil {
			return mintedToken{}, issueErr
		}
		return mintedToken{
			Token:     res.Token,
			IssuedAt:  res.IssuedAt,
			ExpiresAt: res.ExpiresAt,
		}, nil
	}

	loginURL, res, err := issuer.LoginURL(claim)
	if err != nil {
		return mintedToken{}, err
	}
	return mintedToken{
		Token:     res.Token,
		IssuedAt:  res.IssuedAt,
		ExpiresAt: res.ExpiresAt,
		LoginURL:  loginURL,
	}, nil
}

func printMintedTokenJSON(minted mintedToken) error {
	payload, err := json.MarshalIndent(minted, "", "  ")
	if err != nil {
		return fmt.Errorf("encode minted token: %w", err)
	}
	if writeErr := writef(os.Stdout, "%s\n", payload); writeErr != nil {
		return fmt.Errorf("print minted token: %w", writeErr)
	}
	return nil
}

func printMintedToken(minted mintedToken) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "Token\t%s\n", minted.Token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := writef(w, "Issued At\t%s\n", minted.IssuedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write issued at: %w", err)
	}
	if err := writef(w, "Expires At\t%s\n", minted.ExpiresAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write expires at: %w", err)
	}
	if minted.LoginURL != "" {
		if err := writef(w, "Login URL\t%s\n", minted.LoginURL); err != nil {
			return fmt.Errorf("write login url: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush minted token: %w", err)
	}
	return nil
}

func runTokenInspect(cmdCtx *commandContext, args []string) error {
	opts, err := parseTokenInspectFlags(args)
	if err != nil {
		return err
	}

	codec, err := bootstrap.BuildCodec(cmdCtx.Config.SSO)
	if err != nil {
		return fmt.Errorf("build token codec: %w", err)
	}

	claim, err := codec.Verify(opts.Token)
	if err != nil {
		var codecErr *ssotoken.Error
		if errors.As(err, &codecErr) {
			return fmt.Errorf("token rejected (%s): %w", codecErr.Kind, err)
		}
		return fmt.Errorf("verify token: %w", err)
	}

	if opts.RawJSON {
		return printTokenClaimJSON(claim, codec.TTL())
	}
	return printTokenClaim(claim, codec.TTL())
}

type inspectedClaim struct {
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name,omitempty"`
	LastName          string    `json:"last_name,omitempty"`
	ShopifyCustomerID string    `json:"shopify_customer_id,omitempty"`
	ReturnTo          string    `json:"return_to,omitempty"`
	IssuedAt          time.Time `json:"issued_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

func printTokenClaimJSON(claim ssotoken.Claim, ttl time.Duration) error {
	payload, err := json.MarshalIndent(inspectedClaim{
		Email:             claim.Email,
		FirstName:         claim.FirstName,
		LastName:          claim.LastName,
		ShopifyCustomerID: claim.ShopifyCustomerID,
		ReturnTo:          claim.ReturnTo,
		IssuedAt:          claim.IssuedAt,
		ExpiresAt:         claim.IssuedAt.Add(ttl),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode claim: %w", err)
	}
	if writeErr := writef(os.Stdout, "%s\n", payload); writeErr != nil {
		return fmt.Errorf("print claim: %w", writeErr)
	}
	return nil
}

func printTokenClaim(claim ssotoken.Claim, ttl time.Duration) error {
	if err := writef(os.Stdout, "\nToken Claim\n"); err != nil {
		return fmt.Errorf("write claim header: %w", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "Email\t%s\n", claim.Email); err != nil {
		return fmt.Errorf("write email: %w", err)
	}
	if err := writef(w, "First Name\t%s\n", claim.FirstName); err != nil {
		return fmt.Errorf("write first name: %w", err)
	}
	if err := writef(w, "Last Name\t%s\n", claim.LastName); err != nil {
		return fmt.Errorf("write last name: %w", err)
	}
	if err := writef(w, "Customer ID\t%s\n", claim.ShopifyCustomerID); err != nil {
		return fmt.Errorf("write customer id: %w", err)
	}
	if claim.ReturnTo != "" {
		if err := writef(w, "Return To\t%s\n", claim.ReturnTo); err != nil {
			return fmt.Errorf("write return to: %w", err)
		}
	}
	if err := writef(w, "Issued At\t%s\n", claim.IssuedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write issued at: %w", err)
	}
	if err := writef(w, "Expires At\t%s\n", claim.IssuedAt.Add(ttl).Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write expires at: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush claim: %w", err)
	}
	return nil
}

func parseTokenMintFlags(args []string) (tokenMintOptions, error) {
	fs := flag.NewFlagSet("token-mint", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts tokenMintOptions
	fs.StringVar(&opts.Email, "email", "", "Customer email address (required)")
	fs.StringVar(&opts.FirstName, "first-name", "", "Customer first name")
	fs.StringVar(&opts.LastName, "last-name", "", "Customer last name")
	fs.StringVar(&opts.CustomerID, "customer-id", "", "Shopify customer ID")
	fs.StringVar(&opts.ReturnTo, "return-to", "", "Post-login destination path sealed into the token")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the minted token as JSON")

	if err := fs.Parse(args); err != nil {
		return tokenMintOptions{}, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return tokenMintOptions{}, errors.New("--email is required")
	}

	return opts, nil
}

func parseTokenInspectFlags(args []string) (tokenInspectOptions, error) {
	fs := flag.NewFlagSet("token-inspect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts tokenInspectOptions
	fs.StringVar(&opts.Token, "token", "", "Token string to verify (required)")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the verified claim as JSON")

	if err := fs.Parse(args); err != nil {
		return tokenInspectOptions{}, err
	}

	opts.Token = strings.TrimSpace(opts.Token)
	if opts.Token == "" {
		return tokenInspectOptions{}, errors.New("--token is required")
	}

	return opts, nil
}
