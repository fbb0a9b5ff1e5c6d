package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/staffdesk/staffdesk-go/internal/app"
	"github.com/staffdesk/staffdesk-go/internal/credentials"
	"github.com/staffdesk/staffdesk-go/internal/logger"
	"github.com/staffdesk/staffdesk-go/internal/session"
)

func main() {
	godotenv.Load()

	baseURL := flag.String("base-url", envOr("STAFFDESK_BASE_URL", "http://localhost:8000"), "Backend base URL")
	cookieSession := flag.Bool("cookie-session", false, "Use the implicit cookie session instead of bearer tokens")
	credsPath := flag.String("creds-path", "", "Path to the credential file (defaults to the XDG config dir)")
	email := flag.String("login", "", "Log in with this email before sending the request")
	password := flag.String("password", os.Getenv("STAFFDESK_PASSWORD"), "Password for -login")
	path := flag.String("path", "/users/auth/profile/", "Path to request after authentication")
	flag.Parse()

	log := logger.New()

	cli, err := app.NewClient(app.Options{
		BaseURL:       *baseURL,
		CookieSession: *cookieSession,
		CredsPath:     *credsPath,
		Logger:        log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up client")
	}

	cli.OnSessionExpired(func() {
		log.Warn().Msg("Session ended, log in again with -login")
	})

	if *cookieSession {
		log.Info().Msg("🍪 Using cookie session")
	} else {
		log.Info().Str("path", credPath(*credsPath)).Msg("🔑 Using bearer tokens")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *email != "" {
		if err := cli.Login(ctx, *email, *password); err != nil {
			log.Fatal().Err(err).Msg("Login failed")
		}
	} else if !*cookieSession {
		validateCredentialsAtStartup(credPath(*credsPath), log)
	}

	resp, err := cli.Get(ctx, *path)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("Request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read response")
	}
	log.Info().Int("status", resp.StatusCode).Str("path", *path).Msg("Request succeeded")
	fmt.Println(string(body))
}

func validateCredentialsAtStartup(path string, log zerolog.Logger) {
	store := credentials.NewFileStore(path)
	cred, err := store.Get()
	if err != nil {
		log.Error().Err(err).Msg("⚠️  Failed to read stored credentials")
		return
	}
	if cred == nil {
		log.Warn().Msg("⚠️  No stored credentials, use -login to authenticate")
		return
	}

	log.Info().Int("token_length", len(cred.AccessToken)).Msg("✅ Credentials loaded")

	exp, ok := session.TokenExpiry(cred.AccessToken)
	if !ok {
		return
	}
	minutesUntilExpiry := int64(time.Until(exp).Minutes())
	if minutesUntilExpiry <= 0 {
		log.Warn().
			Int64("minutes_expired", -minutesUntilExpiry).
			Msg("⚠️  Access token already expired, will refresh on first request")
	} else {
		log.Info().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("✅ Access token is valid")
	}
}

func credPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return credentials.DefaultPath()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
