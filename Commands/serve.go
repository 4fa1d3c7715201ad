package Commands

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Chronos/AppErrors"
	"Chronos/Config"
	"Chronos/CronJobs"
	"Chronos/FiberConfig"
	"Chronos/Identity"
	"Chronos/Models"
	"Chronos/Slack"
	"Chronos/email"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg.LogDir)

		db, err := Models.Connect(cfg.Database)
		if err != nil {
			return err
		}

		views := email.Views(cfg.TemplatesDir)
		sender := email.NewSender(cfg.SMTP, cfg.FrontendURL, views)
		deps := FiberConfig.NewDependencies(cfg, db, sender, views)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := bootstrapAdmin(ctx, cfg, deps.Directory); err != nil {
			return err
		}

		if cfg.DigestSchedule != "" {
			digest := CronJobs.NewDailyDigest(cfg.DigestSchedule, deps.Reports,
				Slack.NewNotifier(cfg.SlackWebhookURL, cfg.SlackChannel), sender)
			digest.Recipients = digestRecipients(cfg, deps.Directory)
			if err := digest.Start(); err != nil {
				return err
			}
			defer digest.Stop()
		}

		return FiberConfig.FiberConfig(ctx, deps)
	},
}

// bootstrapAdmin creates ADMIN_EMAIL as an administrator on first start.
func bootstrapAdmin(ctx context.Context, cfg *Config.Config, directory *Identity.Directory) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	admin, err := directory.CreateAdmin(ctx, Identity.ProvisionInput{
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		FirstName: "Admin",
	})
	if AppErrors.Is(err, AppErrors.KindConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("Created administrator %s", admin.Email)
	return nil
}

// digestRecipients prefers DIGEST_RECIPIENTS and falls back to every
// active administrator.
func digestRecipients(cfg *Config.Config, directory *Identity.Directory) func(ctx context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		if len(cfg.DigestRecipients) > 0 {
			return cfg.DigestRecipients, nil
		}
		admins, err := directory.Admins(ctx)
		if err != nil {
			return nil, err
		}
		to := make([]string, 0, len(admins))
		for _, admin := range admins {
			to = append(to, admin.Email)
		}
		return to, nil
	}
}
