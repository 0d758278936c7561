//go:build e2e

package tickbox_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for tickbox end-to-end tests.
 * This includes container setup, account helpers, and assertions.
 */

const (
	testImageName = "tickbox-test:latest"
	testIssuer    = "tickbox-e2e"
	testPassword  = "Secret1!"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building tickbox Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up tickbox Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/tickbox/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv relaxes the rate limits; tests make many rapid requests.
func baseEnv() map[string]string {
	return map[string]string{
		"TICKBOX_ISSUER":      testIssuer,
		"TICKBOX_SIGNING_ALG": "EdDSA",
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",

		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// setupTickboxContainer starts tickbox with baseEnv plus env and returns a
// client for it.
func setupTickboxContainer(t *testing.T, env map[string]string, networks ...string) *tickboxsdk.Client {
	t.Helper()
	ctx := context.Background()

	e := baseEnv()
	maps.Copy(e, env)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          e,
			Networks:     networks,
			WaitingFor: wait.ForHTTP(tickboxsdk.PathReadyz).
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return tickboxsdk.NewClient(fmt.Sprintf("http://%s:%s", host, mappedPort.Port()))
}

// setupRedisNetwork starts Redis on a fresh network under the alias "redis"
// and returns the network name.
func setupRedisNetwork(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	nw, err := network.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nw.Remove(context.Background()) })

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          "redis:7-alpine",
			ExposedPorts:   []string{"6379/tcp"},
			Networks:       []string{nw.Name},
			NetworkAliases: map[string][]string{nw.Name: {"redis"}},
			WaitingFor:     wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisC.Terminate(context.Background()) })

	return nw.Name
}

// signUp registers email and logs in with scopes.
func signUp(t *testing.T, client *tickboxsdk.Client, email string, scopes ...string) *tickboxsdk.TokenResponse {
	t.Helper()

	require.NoError(t, client.Register(t.Context(), email, testPassword), "Registration should succeed")

	tok, err := client.PasswordGrant(t.Context(), email, testPassword, scopes...)
	require.NoError(t, err, "Login should succeed")
	assertTokenResponse(t, tok)
	return tok
}

// assertTokenResponse verifies a token response has the fields every grant
// returns.
func assertTokenResponse(t *testing.T, resp *tickboxsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Positive(t, resp.ExpiresIn)
}

// assertOAuth2Error checks the status and error code of a failed call.
func assertOAuth2Error(t *testing.T, err error, status int, code string) {
	t.Helper()

	var oerr *tickboxsdk.OAuth2Error
	require.ErrorAs(t, err, &oerr)
	require.Equal(t, status, oerr.StatusCode)
	require.Equal(t, code, oerr.Code)
}
