//nolint:varnamelen // Test files use idiomatic short variable names (t, g, fs, etc.)
package syncengine_test

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/media-mirror/internal/syncengine"
	"github.com/joe/media-mirror/pkg/filesystem"
)

func TestValidatePairs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		pairs   []syncengine.FolderPair
		wantErr error
	}{
		{
			name:    "no pairs",
			pairs:   nil,
			wantErr: syncengine.ErrNoPairs,
		},
		{
			name: "disjoint siblings",
			pairs: []syncengine.FolderPair{
				{Source: "Originals", DestinationSubpath: "Originals"},
				{Source: "Pictures", DestinationSubpath: "Pictures"},
			},
		},
		{
			name: "shared prefix is not nesting",
			pairs: []syncengine.FolderPair{
				{Source: "a", DestinationSubpath: "Photos"},
				{Source: "b", DestinationSubpath: "Photos Library"},
			},
		},
		{
			name: "same destination",
			pairs: []syncengine.FolderPair{
				{Source: "a", DestinationSubpath: "Photos"},
				{Source: "b", DestinationSubpath: "Photos/"},
			},
			wantErr: syncengine.ErrOverlappingPairs,
		},
		{
			name: "nested destination",
			pairs: []syncengine.FolderPair{
				{Source: "a", DestinationSubpath: "Photos/2024"},
				{Source: "b", DestinationSubpath: "Photos"},
			},
			wantErr: syncengine.ErrOverlappingPairs,
		},
		{
			name:    "escapes the root",
			pairs:   []syncengine.FolderPair{{Source: "a", DestinationSubpath: "../elsewhere"}},
			wantErr: syncengine.ErrOverlappingPairs,
		},
		{
			name:    "is the root",
			pairs:   []syncengine.FolderPair{{Source: "a", DestinationSubpath: "."}},
			wantErr: syncengine.ErrOverlappingPairs,
		},
		{
			name:    "absolute",
			pairs:   []syncengine.FolderPair{{Source: "a", DestinationSubpath: "/abs"}},
			wantErr: syncengine.ErrOverlappingPairs,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			err := syncengine.ValidatePairs(testCase.pairs)
			if testCase.wantErr == nil {
				g.Expect(err).ShouldNot(HaveOccurred())
			} else {
				g.Expect(errors.Is(err, testCase.wantErr)).To(BeTrue(), "got %v", err)
			}
		})
	}
}

func TestFolderPair_Label(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(syncengine.FolderPair{Name: "Originals", Source: "x"}.Label()).To(Equal("Originals"))
	g.Expect(syncengine.FolderPair{Source: "Pictures"}.Label()).To(Equal("Pictures"))
}

func TestRunState_String(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(syncengine.StateIdle.String()).To(Equal("idle"))
	g.Expect(syncengine.StateRunning.String()).To(Equal("running"))
	g.Expect(syncengine.StateCompleted.String()).To(Equal("completed"))
	g.Expect(syncengine.StateFailed.String()).To(Equal("failed"))
	g.Expect(syncengine.RunState(9).String()).To(Equal("RunState(9)"))
}

func TestGlobFilter(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	all, err := syncengine.NewGlobFilter("")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(all.ShouldInclude("anything.bin")).To(BeTrue())

	media, err := syncengine.NewGlobFilter("*.{JPG,mov}")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(media.ShouldInclude("IMG_0001.jpg")).To(BeTrue())
	g.Expect(media.ShouldInclude("clip.MOV")).To(BeTrue())
	g.Expect(media.ShouldInclude("notes.txt")).To(BeFalse())

	_, err = syncengine.NewGlobFilter("[unclosed")
	g.Expect(err).Should(HaveOccurred())
}

func TestRootResolver(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/Users/me/Photos/Originals")
	fs.AddFile("/Users/me/Photos/readme.txt", []byte("x"), time.Now())
	fs.AddDir("/Users/me/Photos/Locked")
	fs.FailOn(filesystem.OpStat, "/Users/me/Photos/Locked", syscall.EPERM)

	resolver := &syncengine.RootResolver{Root: "/Users/me/Photos", FS: fs}

	path, err := resolver.Resolve("Originals")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(path).To(Equal("/Users/me/Photos/Originals"))

	path, err = resolver.Resolve("/Users/me/Photos/Originals")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(path).To(Equal("/Users/me/Photos/Originals"))

	_, err = resolver.Resolve("Locked")
	g.Expect(errors.Is(err, syncengine.ErrAccessDenied)).To(BeTrue())
	g.Expect(syncengine.NeedsReauthorization(err)).To(BeTrue())

	_, err = resolver.Resolve("Missing")
	g.Expect(errors.Is(err, iofs.ErrNotExist)).To(BeTrue())

	var listErr *syncengine.ListError
	g.Expect(errors.As(err, &listErr)).To(BeTrue())
	g.Expect(listErr.Path).To(Equal("/Users/me/Photos/Missing"))
	g.Expect(syncengine.NeedsReauthorization(err)).To(BeFalse())

	_, err = resolver.Resolve("readme.txt")
	g.Expect(err).Should(HaveOccurred())
}

func TestNewRootResolver_RealFileSystem(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	g.Expect(os.Mkdir(filepath.Join(root, "Pictures"), 0o750)).To(Succeed())

	path, err := syncengine.NewRootResolver(root).Resolve("Pictures")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(path).To(Equal(filepath.Join(root, "Pictures")))
}

func TestErrorMessagesNameTheFailure(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cause := errors.New("boom")

	g.Expect((&syncengine.DirectoryCreateError{Path: "/dst", Err: cause}).Error()).To(ContainSubstring("/dst"))
	g.Expect((&syncengine.ListError{Path: "/src", Err: cause}).Error()).To(ContainSubstring("/src"))
	g.Expect((&syncengine.CopyError{FileName: "a.jpg", Err: cause}).Error()).To(ContainSubstring("a.jpg"))

	agg := &syncengine.AggregateError{First: cause, Copied: 7, Failed: []string{"Originals", "Pictures"}}
	g.Expect(agg.Error()).To(ContainSubstring("Originals, Pictures"))
	g.Expect(agg.Error()).To(ContainSubstring("7 files copied"))
	g.Expect(errors.Is(agg, cause)).To(BeTrue())
}

func TestMockTimeProvider(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := syncengine.NewMockTimeProvider(start)

	g.Expect(clock.Sleep(context.Background(), time.Second)).To(Succeed())
	clock.Advance(time.Minute)
	g.Expect(clock.Now()).To(Equal(start.Add(time.Minute + time.Second)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.Expect(clock.Sleep(ctx, time.Second)).To(MatchError(context.Canceled))

	ticker := clock.NewTicker(time.Hour)
	go clock.Tick(start)
	g.Expect(<-ticker.C()).To(Equal(start))
	ticker.Stop()
	ticker.Stop()
}

func TestRealTimeProvider_SleepHonoursContext(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	clock := &syncengine.RealTimeProvider{}

	g.Expect(clock.Sleep(context.Background(), time.Millisecond)).To(Succeed())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.Expect(clock.Sleep(ctx, time.Hour)).To(MatchError(context.Canceled))
}
