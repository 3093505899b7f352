package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealpilot/internal/crm"
	"github.com/sells-group/dealpilot/internal/llm"
	"github.com/sells-group/dealpilot/internal/metrics"
	"github.com/sells-group/dealpilot/internal/oauth"
	"github.com/sells-group/dealpilot/internal/resilience"
	"github.com/sells-group/dealpilot/internal/tools"
	anthropicpkg "github.com/sells-group/dealpilot/pkg/anthropic"
	"github.com/sells-group/dealpilot/pkg/groq"
	"github.com/sells-group/dealpilot/pkg/hubspot"
	sfpkg "github.com/sells-group/dealpilot/pkg/salesforce"
)

// toolEnv holds the collaborators shared by the serve and CLI commands.
type toolEnv struct {
	Service  *tools.Service
	Tokens   *oauth.Store // nil unless serving with HubSpot OAuth
	OAuth    *oauth.Handler
	Breakers *resilience.Breakers
}

// initTools validates config for mode and wires the CRM, LLM and tool
// service. withOAuth enables the in-memory portal token store.
func initTools(mode string, withOAuth bool) (*toolEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &toolEnv{Breakers: newBreakers()}

	if withOAuth && cfg.CRM.Provider == "hubspot" {
		oc := &hubspot.OAuthClient{
			ClientID:     cfg.HubSpot.ClientID,
			ClientSecret: cfg.HubSpot.ClientSecret,
			BaseURL:      cfg.HubSpot.BaseURL,
		}
		env.Tokens = oauth.NewStore(oc)
		env.OAuth = oauth.NewHandler(oauth.Settings{
			ClientID:     cfg.HubSpot.ClientID,
			ClientSecret: cfg.HubSpot.ClientSecret,
			AppURL:       cfg.Server.AppURL,
			AuthorizeURL: cfg.HubSpot.AuthorizeURL,
		}, oc, env.Tokens)
	}

	resolver, err := initResolver(env.Tokens)
	if err != nil {
		return nil, err
	}

	completer, err := initCompleter(env.Breakers)
	if err != nil {
		// Drafting degrades without a model; scoring does not need one.
		zap.L().Warn("llm unavailable, draft-followup will degrade", zap.Error(err))
	}

	env.Service = tools.NewService(tools.Config{
		CRM:         crm.Guarded(resolver, env.Breakers),
		LLM:         completer,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.Server.ToolTimeoutSecs) * time.Second,
	})
	return env, nil
}

func newBreakers() *resilience.Breakers {
	return resilience.NewBreakers(resilience.BreakerConfig{
		Trips: resilience.IsTransient,
		OnChange: func(name string, from, to resilience.State) {
			metrics.ObserveBreaker(name, from, to)
			zap.L().Warn("circuit breaker state change",
				zap.String("upstream", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}

// initResolver builds the CRM resolver for cfg.CRM.Provider. tokens may be
// nil.
func initResolver(tokens *oauth.Store) (crm.Resolver, error) {
	switch cfg.CRM.Provider {
	case "salesforce":
		sf, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		return crm.Static{Backend: crm.NewSalesforce(sf)}, nil
	case "hubspot":
		var fallback hubspot.TokenSource
		if cfg.HubSpot.AccessToken != "" {
			fallback = hubspot.StaticToken(cfg.HubSpot.AccessToken)
		}
		var portals crm.PortalTokens
		if tokens != nil {
			portals = tokens
		}
		if fallback == nil && portals == nil {
			return nil, eris.New("hubspot access token is required (DEALPILOT_HUBSPOT_ACCESS_TOKEN)")
		}
		return crm.NewHubSpotResolver(portals, fallback,
			hubspot.WithBaseURL(cfg.HubSpot.BaseURL),
			hubspot.WithRateLimit(cfg.HubSpot.RateLimit),
		), nil
	}
	return nil, eris.Errorf("unsupported crm provider %q", cfg.CRM.Provider)
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (DEALPILOT_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	return sfpkg.Connect(
		cfg.Salesforce.LoginURL,
		cfg.Salesforce.Username,
		cfg.Salesforce.ClientID,
		string(pemData),
		sfpkg.WithRateLimit(cfg.Salesforce.RateLimit),
	)
}

// initCompleter builds the completion provider behind its own breaker.
func initCompleter(breakers *resilience.Breakers) (llm.Completer, error) {
	var c llm.Completer
	switch cfg.LLM.Provider {
	case "groq":
		if cfg.Groq.Key == "" {
			return nil, eris.New("groq key is required (DEALPILOT_GROQ_KEY)")
		}
		c = llm.NewGroq(groq.NewClient(cfg.Groq.Key,
			groq.WithBaseURL(cfg.Groq.BaseURL),
			groq.WithModel(cfg.Groq.Model),
		), cfg.Groq.MaxTokens)
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic key is required (DEALPILOT_ANTHROPIC_KEY)")
		}
		c = llm.NewAnthropic(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	default:
		return nil, eris.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
	return llm.Guard(c, breakers.Get("llm:"+cfg.LLM.Provider)), nil
}
