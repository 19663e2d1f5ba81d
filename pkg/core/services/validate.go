package services

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/composer"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

var (
	schemePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*$`)
	packagePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)
)

// ValidateLinkInput rejects input that cannot form a safe intent or
// custom-scheme URI. Errors wrap domain.ErrInvalidInput.
func ValidateLinkInput(in domain.LinkInput) error {
	if !schemePattern.MatchString(in.AppScheme) {
		return errors.Wrapf(domain.ErrInvalidInput, "app_scheme %q must be a URI scheme", in.AppScheme)
	}
	if !packagePattern.MatchString(in.AppPackage) {
		return errors.Wrapf(domain.ErrInvalidInput, "app_package %q must be a dotted package identifier", in.AppPackage)
	}

	u, err := url.Parse(in.FallbackURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Wrapf(domain.ErrInvalidInput, "fallback_url %q must be an absolute http(s) URL", in.FallbackURL)
	}

	if strings.ContainsAny(strings.TrimSpace(in.CustomPath), " \t\r\n") {
		return errors.Wrap(domain.ErrInvalidInput, "custom_path must not contain whitespace")
	}
	return nil
}

// ValidateSpec checks a complete record before it is written, whether it comes
// from CreateLink or from an import. Both redirect forms must compose.
func ValidateSpec(spec *domain.DeepLinkSpec) error {
	if spec == nil {
		return errors.Wrap(domain.ErrInvalidInput, "empty record")
	}
	if err := ValidateLinkInput(domain.LinkInput{
		AppScheme:   spec.AppScheme,
		AppPackage:  spec.AppPackage,
		FallbackURL: spec.FallbackURL,
		CustomPath:  spec.CustomPath,
		Title:       spec.Title,
	}); err != nil {
		return err
	}

	if _, err := composer.IntentURI(spec); err != nil {
		return err
	}
	if _, err := composer.AppURI(spec); err != nil {
		return err
	}
	return nil
}

// DeepLinkFor is the stored scheme://path form of spec.
func DeepLinkFor(spec *domain.DeepLinkSpec) string {
	return spec.AppScheme + "://" + composer.NormalizePath(spec.CustomPath)
}
