package devops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDockerfile_BuildInfoAndLabels ensures the image stamps version, commit
// and date into the binary and into OCI labels.
func TestDockerfile_BuildInfoAndLabels(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(findRepoRoot(t), "Dockerfile"))
	if err != nil {
		t.Fatalf("read Dockerfile: %v", err)
	}
	s := string(b)
	for _, v := range []string{"BuildVersion", "BuildCommit", "BuildDate"} {
		if !strings.Contains(s, "internal/app."+v+"=") {
			t.Fatalf("Dockerfile should set %s via -ldflags", v)
		}
	}
	if !strings.Contains(s, "org.opencontainers.image.revision") || !strings.Contains(s, "org.opencontainers.image.created") {
		t.Fatalf("Dockerfile should label revision and created")
	}
	if !strings.Contains(s, "ARG COMMIT") || !strings.Contains(s, "ARG DATE") {
		t.Fatalf("Dockerfile should declare ARG COMMIT and ARG DATE for labels")
	}
}

// TestDockerfile_ServesDashboardAsNonRoot checks the runtime stage.
func TestDockerfile_ServesDashboardAsNonRoot(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(findRepoRoot(t), "Dockerfile"))
	if err != nil {
		t.Fatalf("read Dockerfile: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "\nUSER app") {
		t.Fatalf("runtime stage should switch to the app user")
	}
	if !strings.Contains(s, `CMD ["serve"]`) {
		t.Fatalf("default command should serve the dashboard")
	}
	if !strings.Contains(s, "HOST=0.0.0.0") || !strings.Contains(s, "EXPOSE 8000") {
		t.Fatalf("image should listen on 0.0.0.0:8000")
	}
}

// TestMake_Targets verifies the developer targets exist and pass build args.
func TestMake_Targets(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(findRepoRoot(t), "Makefile"))
	if err != nil {
		t.Fatalf("Makefile missing: %v", err)
	}
	mk := string(b)
	for _, target := range []string{"\nbuild:", "\ntest:", "\nimage:", "\nup:", "\ndown:", "\nlogs:", "\nsync:", "\nclean:"} {
		if !strings.Contains(mk, target) {
			t.Fatalf("Makefile should define a %q target", strings.TrimSpace(target))
		}
	}
	if !strings.Contains(mk, "--profile test up -d stub-llm") || !strings.Contains(mk, "go test ./...") {
		t.Fatalf("test target should start stub-llm (test profile) and run go test")
	}
	if !strings.Contains(mk, "--build-arg VERSION=") || !strings.Contains(mk, "--build-arg COMMIT=") || !strings.Contains(mk, "--build-arg DATE=") {
		t.Fatalf("image target should pass VERSION, COMMIT, and DATE build args")
	}
	if !strings.Contains(mk, ".statscrape-cache") {
		t.Fatalf("clean target should remove the local .statscrape-cache directory")
	}
}
