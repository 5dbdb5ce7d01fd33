package cmd

import (
	"log/slog"
	"net/http"
	"os"

	"zohocrm/internal/config"
	"zohocrm/internal/zoho/crm"
	"zohocrm/internal/zoho/oauth"
	"zohocrm/pkg/logging"
)

// app bundles the wired credential stack shared by the CLI commands.
type app struct {
	cfg        *config.Config
	store      *oauth.Store
	exchanger  *oauth.Exchanger
	flow       *oauth.BrowserFlow
	supervisor *oauth.Supervisor
}

// buildApp loads configuration and assembles the OAuth components.
// Stored credentials are loaded tolerantly: a corrupt token file degrades
// to the unauthenticated state instead of failing the command.
func buildApp() (*app, error) {
	logging.Setup(logLevel, os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store := oauth.NewStore(oauth.StoreConfig{
		Path:             cfg.TokenFile,
		DefaultAPIDomain: cfg.APIDomain,
		DefaultScope:     cfg.Scope,
	})
	if _, err := store.Load(); err != nil {
		slog.Warn("Stored credentials unusable, re-authentication will be required", "error", err)
	}

	exchanger := oauth.NewExchanger(oauth.ExchangerConfig{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		RedirectURI:    cfg.RedirectURI,
		AccountsDomain: cfg.AccountsDomain,
		HTTPClient:     &http.Client{Timeout: cfg.RequestTimeout},
	})

	flow := oauth.NewBrowserFlow(oauth.BrowserFlowConfig{
		ClientID:       cfg.ClientID,
		RedirectURI:    cfg.RedirectURI,
		Scope:          cfg.Scope,
		AccountsDomain: cfg.AccountsDomain,
		Timeout:        cfg.AuthTimeout,
	})

	return &app{
		cfg:        cfg,
		store:      store,
		exchanger:  exchanger,
		flow:       flow,
		supervisor: oauth.NewSupervisor(store, exchanger, flow),
	}, nil
}

// crmClient builds a CRM API client backed by the app's supervisor.
func (a *app) crmClient() *crm.Client {
	return crm.NewClient(crm.ClientConfig{
		Credentials: a.supervisor,
		APIVersion:  a.cfg.APIVersion,
		Timeout:     a.cfg.RequestTimeout,
	})
}
