// Package config defines the runtime settings of the mock services and
// their viper bindings.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Viper keys, shared between flags and environment variables.
const (
	KeyVWSAddress           = "vws-address"
	KeyVWQAddress           = "vwq-address"
	KeyAdminAddress         = "admin-address"
	KeyTargetManagerBaseURL = "target-manager-base-url"
	KeyProcessingSeconds    = "processing-time-seconds"
	KeyDeletionProcessing   = "deletion-processing-seconds"
	KeyDeletionRecognition  = "deletion-recognition-seconds"
	KeyQueryImageMatcher    = "query-image-matcher"
	KeyTargetRater          = "target-rater"
	KeyDebug                = "debug"
)

// Settings is the resolved configuration of one mock process.
type Settings struct {
	// Listen addresses of the three services. An empty address disables
	// that service in this process.
	VWSAddress   string
	VWQAddress   string
	AdminAddress string

	// TargetManagerBaseURL, when set, makes the query service read state
	// over HTTP from a separately running target manager instead of from
	// the in-process store.
	TargetManagerBaseURL string

	// Timing knobs of the simulated lifecycle.
	ProcessingTime      time.Duration
	DeletionProcessing  time.Duration
	DeletionRecognition time.Duration

	// Engine choices, resolved later by the matchers and raters packages.
	QueryImageMatcher string
	TargetRater       string

	Debug bool
}

// RegisterFlags declares the service flags with their defaults and binds
// them into viper so environment variables override them.
func RegisterFlags(flags *pflag.FlagSet) error {
	flags.String(KeyVWSAddress, "127.0.0.1:5005", "listen address of the target-management service")
	flags.String(KeyVWQAddress, "127.0.0.1:5006", "listen address of the query service")
	flags.String(KeyAdminAddress, "127.0.0.1:5007", "listen address of the admin service")
	flags.String(KeyTargetManagerBaseURL, "", "base URL of a remote target manager; empty uses in-process state")
	flags.Float64(KeyProcessingSeconds, 0.5, "seconds a new or replaced image stays in processing")
	flags.Float64(KeyDeletionProcessing, 3.0, "seconds after the recognition window during which a deleted target's match returns the canned 500")
	flags.Float64(KeyDeletionRecognition, 0.2, "seconds after deletion during which a deleted target still matches queries")
	flags.String(KeyQueryImageMatcher, "average_hash", "image matcher: exact or average_hash")
	flags.String(KeyTargetRater, "quality", "tracking rater: random, quality")

	for _, key := range []string{
		KeyVWSAddress, KeyVWQAddress, KeyAdminAddress,
		KeyTargetManagerBaseURL,
		KeyProcessingSeconds, KeyDeletionProcessing, KeyDeletionRecognition,
		KeyQueryImageMatcher, KeyTargetRater,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			return fmt.Errorf("binding flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the resolved settings out of viper.
func Load() Settings {
	return Settings{
		VWSAddress:           viper.GetString(KeyVWSAddress),
		VWQAddress:           viper.GetString(KeyVWQAddress),
		AdminAddress:         viper.GetString(KeyAdminAddress),
		TargetManagerBaseURL: viper.GetString(KeyTargetManagerBaseURL),
		ProcessingTime:       secondsDuration(viper.GetFloat64(KeyProcessingSeconds)),
		DeletionProcessing:   secondsDuration(viper.GetFloat64(KeyDeletionProcessing)),
		DeletionRecognition:  secondsDuration(viper.GetFloat64(KeyDeletionRecognition)),
		QueryImageMatcher:    viper.GetString(KeyQueryImageMatcher),
		TargetRater:          viper.GetString(KeyTargetRater),
		Debug:                viper.GetBool(KeyDebug),
	}
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
