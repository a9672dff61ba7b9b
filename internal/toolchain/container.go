package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// ContainerProvider resolves compiler versions to Docker images following
// the silkeh/clang:<major> tagging scheme, mirroring the original project's
// docker-backed compiler resolution: pull (or confirm presence of) the image
// for the requested major version and never substitute a different tag.
type ContainerProvider struct {
	// ImagePrefix is the image family, e.g. "silkeh/clang".
	ImagePrefix string
	// PullTimeout bounds how long an image pull is allowed to take.
	PullTimeout time.Duration

	runDocker func(ctx context.Context, args ...string) error
}

// NewContainerProvider returns a ContainerProvider for the given image
// family and pull timeout.
func NewContainerProvider(imagePrefix string, pullTimeout time.Duration) *ContainerProvider {
	return &ContainerProvider{
		ImagePrefix: imagePrefix,
		PullTimeout: pullTimeout,
		runDocker:   runDockerCommand,
	}
}

// Name returns "container".
func (p *ContainerProvider) Name() string { return "container" }

// imageRef returns the image reference for version, tagged by major version
// only, matching the host images' tagging scheme.
func (p *ContainerProvider) imageRef(version string) string {
	return fmt.Sprintf("%s:%s", p.ImagePrefix, majorVersion(version))
}

// Available reports whether the image for version is present locally or can
// be pulled, without mutating local state beyond that pull.
func (p *ContainerProvider) Available(ctx context.Context, version string) bool {
	image := p.imageRef(version)
	if p.runDocker(ctx, "image", "inspect", image) == nil {
		return true
	}
	pullCtx, cancel := context.WithTimeout(ctx, p.PullTimeout)
	defer cancel()
	return p.runDocker(pullCtx, "pull", image) == nil
}

// Resolve ensures the image for version is present and returns a Handle
// addressing it. The Executable field names the in-container compiler
// command; callers invoke it via `docker run <image> <Executable> ...`.
func (p *ContainerProvider) Resolve(ctx context.Context, version string) (Handle, error) {
	image := p.imageRef(version)
	if p.runDocker(ctx, "image", "inspect", image) != nil {
		pullCtx, cancel := context.WithTimeout(ctx, p.PullTimeout)
		defer cancel()
		if err := p.runDocker(pullCtx, "pull", image); err != nil {
			return Handle{}, fmt.Errorf("%w: pulling %s: %v", ErrVersionUnavailable, image, err)
		}
	}
	return Handle{Version: version, Executable: "clang", Container: image}, nil
}

// runDockerCommand shells out to the docker CLI, discarding output; callers
// only care whether the command succeeded.
func runDockerCommand(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	return cmd.Run()
}

// CheckDockerAvailable reports whether a docker daemon is reachable at all,
// used as a pre-flight check before attempting container-mode resolution.
func CheckDockerAvailable(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}
	return nil
}
