// Command tink-user manages Tink users from the command line: create, get,
// delete, fetch account data, and list the local registry of provisioned
// users.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ImpossiblyAI/tink-finance/config"
	"github.com/ImpossiblyAI/tink-finance/storage"
	"github.com/ImpossiblyAI/tink-finance/tink"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	client, err := tink.NewClient(tink.ClientOpts{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create client")
	}
	defer client.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		runCreate(ctx, client, os.Args[2:])
	case "get":
		runGet(ctx, client, os.Args[2:])
	case "delete":
		runDelete(ctx, client, os.Args[2:])
	case "data":
		runData(ctx, client, os.Args[2:])
	case "list":
		runList()
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tink-user <create|get|delete|data|list> [flags]")
}

// openRegistry opens the local user registry if TINK_REGISTRY_DB is set.
// Returns nil when no registry is configured.
func openRegistry() storage.UserStore {
	dbPath := os.Getenv("TINK_REGISTRY_DB")
	if dbPath == "" {
		return nil
	}
	passphrase := os.Getenv("TINK_REGISTRY_KEY")
	if passphrase == "" {
		log.Fatal().Msg("TINK_REGISTRY_KEY must be set when TINK_REGISTRY_DB is used")
	}

	store, err := storage.NewSQLiteStore(dbPath, storage.DeriveKey(passphrase))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open user registry")
	}
	return store
}

func runCreate(ctx context.Context, client *tink.Client, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	market := fs.String("market", "ES", "market code, e.g. ES or SE")
	locale := fs.String("locale", "es_ES", "locale code, e.g. es_ES or sv_SE")
	externalID := fs.String("external-id", "", "external user id (generated if empty)")
	fs.Parse(args)

	if *externalID == "" {
		*externalID = uuid.New().String()
	}

	res, err := client.CreateUser(ctx, tink.CreateUserRequest{
		Market:         *market,
		Locale:         *locale,
		ExternalUserID: *externalID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create user failed")
	}

	if store := openRegistry(); store != nil {
		defer store.Close()
		err := store.Save(&storage.UserRecord{
			UserID:         res.UserID,
			ExternalUserID: *externalID,
			Market:         *market,
			Locale:         *locale,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to record user in registry")
		}
	}

	fmt.Printf("created user %s (external id %s)\n", res.UserID, *externalID)
}

// subjectFlags parses the mutually exclusive identifier flags. Validation of
// exactly-one-of happens in the client.
func subjectFlags(name string, args []string) tink.Subject {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	userID := fs.String("user-id", "", "Tink user id")
	externalID := fs.String("external-id", "", "external user id")
	fs.Parse(args)

	return tink.Subject{UserID: *userID, ExternalUserID: *externalID}
}

func runGet(ctx context.Context, client *tink.Client, args []string) {
	subject := subjectFlags("get", args)

	user, err := client.GetUser(ctx, subject)
	if err != nil {
		log.Fatal().Err(err).Msg("get user failed")
	}

	fmt.Printf("id:          %s\n", user.ID)
	fmt.Printf("external id: %s\n", user.ExternalUserID)
	fmt.Printf("market:      %s\n", user.Profile.Market)
	fmt.Printf("locale:      %s\n", user.Profile.Locale)
	fmt.Printf("created:     %s\n", user.Created)
}

func runDelete(ctx context.Context, client *tink.Client, args []string) {
	subject := subjectFlags("delete", args)

	if err := client.DeleteUser(ctx, subject); err != nil {
		log.Fatal().Err(err).Msg("delete user failed")
	}

	if store := openRegistry(); store != nil {
		defer store.Close()
		if subject.ExternalUserID != "" {
			if err := store.Delete(subject.ExternalUserID); err != nil {
				log.Warn().Err(err).Msg("failed to remove user from registry")
			}
		}
	}

	fmt.Println("user deleted")
}

func runData(ctx context.Context, client *tink.Client, args []string) {
	subject := subjectFlags("data", args)

	data, err := client.FetchUserData(ctx, subject)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch user data failed")
	}

	fmt.Printf("%d accounts\n", len(data.Accounts))
	for _, a := range data.Accounts {
		fmt.Printf("  %s  %-20s %10.2f %s\n", a.ID, a.Name, a.Balance, a.CurrencyCode)
	}
	fmt.Printf("%d transactions\n", len(data.Transactions))
	for _, tx := range data.Transactions {
		fmt.Printf("  %s  %s %10.2f %s  %s\n", tx.Date, tx.ID, tx.Amount, tx.CurrencyCode, tx.Description)
	}
}

func runList() {
	store := openRegistry()
	if store == nil {
		log.Fatal().Msg("TINK_REGISTRY_DB is not set")
	}
	defer store.Close()

	records, err := store.GetAll()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list users")
	}

	for _, r := range records {
		fmt.Printf("%s  %s  %s/%s  created %s\n",
			r.ExternalUserID, r.UserID, r.Market, r.Locale, r.CreatedAt.Format("2006-01-02"))
	}
}
