package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/github"
	"github.com/Didstopia/forgeops/internal/logging"
	"github.com/Didstopia/forgeops/pkg/util"
)

// Package types accepted by the packages API
var PackageTypes = []string{"container", "npm", "maven", "rubygems", "nuget"}

// DefaultPackageType is used when the requested type is unknown
const DefaultPackageType = "container"

// ScopeKind selects whose packages are addressed
type ScopeKind string

// Package scopes
const (
	ScopeOrg  ScopeKind = "org"
	ScopeUser ScopeKind = "user"
)

// PackageScope is an organization or user owning packages
type PackageScope struct {
	Kind ScopeKind
	Name string
}

// NewPackageScope validates a scope
func NewPackageScope(kind ScopeKind, name string) (PackageScope, error) {
	if kind != ScopeOrg && kind != ScopeUser {
		return PackageScope{}, gherrors.NewConfigError("scope", fmt.Sprintf("unknown scope %q (expected org or user)", kind))
	}
	if err := util.ValidateAccountName(string(kind), name); err != nil {
		return PackageScope{}, err
	}
	return PackageScope{Kind: kind, Name: name}, nil
}

func (p PackageScope) basePath() string {
	if p.Kind == ScopeUser {
		return "users/" + p.Name + "/packages"
	}
	return "orgs/" + p.Name + "/packages"
}

// NormalizePackageType lowercases t and falls back to container for unknown types
func (s *Service) NormalizePackageType(t string) string {
	normalized := strings.ToLower(strings.TrimSpace(t))
	if contains(PackageTypes, normalized) {
		return normalized
	}
	logging.Event(s.log, "package_type_normalized", logrus.Fields{
		"requested": t,
		"used":      DefaultPackageType,
	}, logrus.WarnLevel)
	return DefaultPackageType
}

func packagePath(scope PackageScope, pkgType, name string) string {
	return scope.basePath() + "/" + pkgType + "/" + url.PathEscape(name)
}

// PackageKind describes the packages of one type owned by scope
func (s *Service) PackageKind(scope PackageScope, pkgType string) Kind {
	pkgType = s.NormalizePackageType(pkgType)
	return Kind{
		Name:   "package_delete",
		Path:   scope.basePath(),
		Query:  url.Values{"package_type": []string{pkgType}},
		Decode: decodePackage,
		Apply: func(ctx context.Context, item Item) error {
			_, err := s.req.Execute(ctx, http.MethodDelete, packagePath(scope, pkgType, item.ID()), nil)
			return err
		},
	}
}

// PackageVersionKind describes the versions of one package
func (s *Service) PackageVersionKind(scope PackageScope, pkgType, name string) Kind {
	pkgType = s.NormalizePackageType(pkgType)
	base := packagePath(scope, pkgType, name) + "/versions"
	return Kind{
		Name:   "package_version_delete",
		Path:   base,
		Decode: decodePackageVersion,
		Apply: func(ctx context.Context, item Item) error {
			_, err := s.req.Execute(ctx, http.MethodDelete, base+"/"+item.ID(), nil)
			return err
		},
	}
}

// DeletePackages deletes whole packages of one type
func (s *Service) DeletePackages(ctx context.Context, scope PackageScope, pkgType string, filter Filter) (*Result, error) {
	return s.Run(ctx, s.PackageKind(scope, pkgType), filter)
}

// DeletePackageVersions deletes versions of a single package
func (s *Service) DeletePackageVersions(ctx context.Context, scope PackageScope, pkgType, name string, filter Filter) (*Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, gherrors.NewConfigError("package", "package name is required to delete versions")
	}
	return s.Run(ctx, s.PackageVersionKind(scope, pkgType, name), filter)
}

// ListPackages returns the well-formed packages of one type without mutating anything
func (s *Service) ListPackages(ctx context.Context, scope PackageScope, pkgType string) ([]Package, error) {
	kind := s.PackageKind(scope, pkgType)

	var packages []Package
	err := s.lister.Each(ctx, kind.Path, github.ListOptions{
		PerPage: s.opts.PerPage,
		Query:   kind.Query,
	}, func(raw json.RawMessage) error {
		item, err := decodePackage(raw)
		if err != nil || !item.Valid() {
			logging.Event(s.log, "package_list_skip", logrus.Fields{"reason": SkipMalformed}, logrus.WarnLevel)
			return nil
		}
		packages = append(packages, item.(Package))
		return nil
	})

	logging.Event(s.log, "package_list_complete", logrus.Fields{
		"scope": string(scope.Kind),
		"name":  scope.Name,
		"count": len(packages),
	}, logrus.InfoLevel)

	return packages, err
}
