package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("owner", "deploy"))
	assert.NoError(t, ValidateName("owner", "_svc-01"))
	assert.Error(t, ValidateName("owner", ""))
	assert.Error(t, ValidateName("owner", "0deploy"))
	assert.Error(t, ValidateName("owner", "has space"))
}

func TestValidateHostname(t *testing.T) {
	assert.NoError(t, ValidateHostname("hostname", "db01.internal"))
	assert.Error(t, ValidateHostname("hostname", ""))
	assert.Error(t, ValidateHostname("hostname", "_bad"))
	assert.Error(t, ValidateHostname("hostname", "has..empty.label"))
}

func TestValidateSafePath(t *testing.T) {
	assert.NoError(t, ValidateSafePath("path", "/srv/app"))
	assert.Error(t, ValidateSafePath("path", "relative/path"))
	assert.Error(t, ValidateSafePath("path", "/srv/../etc"))
}

func TestValidateMode(t *testing.T) {
	assert.NoError(t, ValidateMode("644"))
	assert.NoError(t, ValidateMode("0755"))
	assert.Error(t, ValidateMode("77"))
	assert.Error(t, ValidateMode("99999"))
	assert.Error(t, ValidateMode("abc"))
}

func TestValidatePackageName(t *testing.T) {
	assert.NoError(t, ValidatePackageName("curl"))
	assert.NoError(t, ValidatePackageName("libssl1.1"))
	assert.Error(t, ValidatePackageName("C"))
	assert.Error(t, ValidatePackageName("Curl"))
}

func TestValidatePackageVersion(t *testing.T) {
	assert.NoError(t, ValidatePackageVersion("1.2.3-1"))
	assert.NoError(t, ValidatePackageVersion("2:1.2.3-1ubuntu1"))
	assert.Error(t, ValidatePackageVersion(""))
	assert.Error(t, ValidatePackageVersion("1.2.3-1ubuntu1!"))
}

func TestValidateResolverOption(t *testing.T) {
	assert.NoError(t, ValidateResolverOption("rotate"))
	assert.NoError(t, ValidateResolverOption("ndots:5"))
	assert.Error(t, ValidateResolverOption("ndots:20"))
	assert.Error(t, ValidateResolverOption("bogus"))
	assert.Error(t, ValidateResolverOption("timeout:100"))
}
