//nolint:varnamelen // Test files use idiomatic short variable names (t, g, fs, etc.)
package trigger_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/media-mirror/internal/history"
	"github.com/joe/media-mirror/internal/syncengine"
	"github.com/joe/media-mirror/internal/trigger"
	"github.com/joe/media-mirror/pkg/fileops"
	"github.com/joe/media-mirror/pkg/filesystem"
)

var epoch = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

// failingStore is a history store whose Append always fails.
type failingStore struct {
	history.MemoryStore
}

func (f *failingStore) Append(context.Context, history.Record) error {
	return errors.New("database is locked")
}

func newMockRunner(fs *filesystem.MockFileSystem) (*trigger.Runner, *syncengine.MockTimeProvider) {
	clock := syncengine.NewMockTimeProvider(epoch)

	syncer := syncengine.NewFolderSyncer(fileops.NewFileOps(fs))
	syncer.TimeProvider = clock

	return &trigger.Runner{
		Orchestrator: syncengine.NewOrchestrator(syncer, nil, "/backup"),
		Store:        history.NewMemoryStore(),
		Pairs: []syncengine.FolderPair{
			{Name: "Originals", Source: "/photos/Originals", DestinationSubpath: "Originals"},
			{Name: "Pictures", Source: "/photos/Pictures", DestinationSubpath: "Pictures"},
		},
		TimeProvider: clock,
	}, clock
}

func TestRun_RecordsSuccess(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/photos/Originals/a.jpg", []byte("a"), epoch)
	fs.AddFile("/photos/Originals/b.jpg", []byte("b"), epoch)
	fs.AddFile("/photos/Originals/.DS_Store", []byte("x"), epoch)
	fs.AddDir("/photos/Pictures")

	runner, _ := newMockRunner(fs)

	record, err := runner.Run(context.Background(), nil)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(record.Success).To(BeTrue())
	g.Expect(record.FilesTransferred).To(Equal(2))
	g.Expect(record.Timestamp).To(Equal(epoch))
	g.Expect(record.ID).NotTo(BeEmpty())

	stored, err := runner.Store.List(context.Background())
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(stored).To(Equal([]history.Record{record}))
}

func TestRun_RecordsFailureWithPartialCount(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/photos/Originals")
	fs.FailOn(filesystem.OpList, "/photos/Originals", syscall.EACCES)
	fs.AddFile("/photos/Pictures/c.png", []byte("c"), epoch)

	runner, _ := newMockRunner(fs)

	record, err := runner.Run(context.Background(), nil)
	g.Expect(err).Should(HaveOccurred())
	g.Expect(syncengine.NeedsReauthorization(err)).To(BeTrue())
	g.Expect(record.Success).To(BeFalse())
	g.Expect(record.FilesTransferred).To(Equal(1))
	g.Expect(record.ErrorMessage).To(ContainSubstring("permission denied"))

	stored, err := runner.Store.List(context.Background())
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(stored).To(HaveLen(1))
}

func TestRun_SecondTriggerWhileRunningIsIgnored(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/photos/Originals")
	fs.AddDir("/photos/Pictures")

	entered := make(chan struct{})
	release := make(chan struct{})

	var once sync.Once

	runner, _ := newMockRunner(fs)
	runner.Orchestrator.Resolver = syncengine.PathResolverFunc(func(folder string) (string, error) {
		once.Do(func() { close(entered) })
		<-release

		return folder, nil
	})

	done := make(chan error, 1)

	go func() {
		_, err := runner.Run(context.Background(), nil)
		done <- err
	}()

	<-entered

	record, err := runner.Run(context.Background(), nil)
	g.Expect(errors.Is(err, syncengine.ErrRunInProgress)).To(BeTrue())
	g.Expect(record).To(Equal(history.Record{}))

	close(release)
	g.Expect(<-done).To(Succeed())

	stored, err := runner.Store.List(context.Background())
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(stored).To(HaveLen(1))
}

func TestRun_ReportsStoreFailure(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/photos/Originals")
	fs.AddDir("/photos/Pictures")

	runner, _ := newMockRunner(fs)
	runner.Store = &failingStore{}

	record, err := runner.Run(context.Background(), nil)
	g.Expect(err).To(MatchError(ContainSubstring("database is locked")))
	g.Expect(record.Success).To(BeTrue())
}

func TestEvery_RunsImmediatelyAndOnEachTick(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/photos/Originals/a.jpg", []byte("a"), epoch)
	fs.AddDir("/photos/Pictures")

	runner, clock := newMockRunner(fs)

	results := make(chan history.Record, 4)
	runner.OnResult = func(record history.Record, _ error) { results <- record }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- runner.Every(ctx, time.Hour, nil) }()

	first := <-results
	g.Expect(first.FilesTransferred).To(Equal(1))

	fs.AddFile("/photos/Pictures/new.png", []byte("n"), epoch)
	clock.Tick(epoch.Add(time.Hour))

	second := <-results
	g.Expect(second.FilesTransferred).To(Equal(1))
	g.Expect(second.Success).To(BeTrue())

	cancel()
	g.Expect(<-done).To(Succeed())

	stored, err := runner.Store.List(context.Background())
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(stored).To(HaveLen(2))
	g.Expect(stored[0].ID).To(Equal(second.ID))
}

func TestEvery_RejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	runner, _ := newMockRunner(filesystem.NewMockFileSystem())
	g.Expect(runner.Every(context.Background(), 0, nil)).NotTo(Succeed())
}

func TestWatch_RunsAfterSourceChanges(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	sourceRoot := t.TempDir()
	originals := filepath.Join(sourceRoot, "Originals")
	g.Expect(os.Mkdir(originals, 0o750)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(originals, "a.jpg"), []byte("a"), 0o600)).To(Succeed())

	destRoot := filepath.Join(t.TempDir(), "backup")

	syncer := syncengine.NewFolderSyncer(fileops.NewRealFileOps())
	syncer.Delay = 0

	runner := &trigger.Runner{
		Orchestrator: syncengine.NewOrchestrator(syncer, syncengine.NewRootResolver(sourceRoot), destRoot),
		Store:        history.NewMemoryStore(),
		Pairs:        []syncengine.FolderPair{{Name: "Originals", Source: "Originals", DestinationSubpath: "Originals"}},
	}

	results := make(chan history.Record, 8)
	runner.OnResult = func(record history.Record, _ error) { results <- record }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- runner.Watch(ctx, []string{originals}, 20*time.Millisecond, nil) }()

	first := waitForRecord(t, results)
	g.Expect(first.FilesTransferred).To(Equal(1))

	g.Expect(os.WriteFile(filepath.Join(originals, "b.jpg"), []byte("b"), 0o600)).To(Succeed())

	second := waitForRecord(t, results)
	g.Expect(second.FilesTransferred).To(Equal(1))

	_, err := os.Stat(filepath.Join(destRoot, "Originals", "b.jpg"))
	g.Expect(err).ShouldNot(HaveOccurred())

	cancel()
	g.Expect(<-done).To(Succeed())
}

func TestWatch_MissingDirectory(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	runner, _ := newMockRunner(filesystem.NewMockFileSystem())

	err := runner.Watch(context.Background(), []string{filepath.Join(t.TempDir(), "gone")}, time.Millisecond, nil)
	g.Expect(err).Should(HaveOccurred())
}

func waitForRecord(t *testing.T, results <-chan history.Record) history.Record {
	t.Helper()

	select {
	case record := <-results:
		return record
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for a sync run")
		return history.Record{}
	}
}
