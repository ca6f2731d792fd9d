package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
	infraRepos "github.com/aicode-cli/aicode/internal/infrastructure/repositories"
)

// Analyze is the interface for the dependency analysis command.
type Analyze interface {
	Execute(ctx context.Context, opts AnalyzeOptions) (*AnalyzeReport, error)
}

// AnalyzeOptions holds runtime options for one analysis run.
type AnalyzeOptions struct {
	Root        string
	Fix         bool
	Yes         bool
	Resolutions map[string]string
	Out         io.Writer
	In          io.Reader
}

// AnalyzeReport is the outcome of a run: the ordered findings plus what
// the apply gate did with them.
type AnalyzeReport struct {
	Findings []entities.Finding
	Partial  bool
	Applied  int
	Aborted  int
}

// manifestTask pairs a discovered manifest with the adapter that claimed it.
type manifestTask struct {
	path    string
	adapter domainRepos.AdapterRepository
}

// scanTask pairs a source file with the scanner for its ecosystem.
type scanTask struct {
	path    string
	content string
	scanner domainRepos.ScannerRepository
}

// AnalyzeCommand runs the full pipeline: discover manifests and sources,
// parse and scan them concurrently, reconcile, and optionally plan, diff,
// confirm and apply patches.
type AnalyzeCommand struct {
	adapters  *infraRepos.AdapterRegistry
	scanners  *infraRepos.ScannerRegistry
	workspace domainRepos.WorkspaceRepository
	settings  *entities.Settings
}

// NewAnalyzeCommand creates a new AnalyzeCommand.
func NewAnalyzeCommand(
	adapters *infraRepos.AdapterRegistry,
	scanners *infraRepos.ScannerRegistry,
	workspace domainRepos.WorkspaceRepository,
	settings *entities.Settings,
) *AnalyzeCommand {
	return &AnalyzeCommand{
		adapters:  adapters,
		scanners:  scanners,
		workspace: workspace,
		settings:  settings,
	}
}

// Execute is the entry point for one analysis run.
func (it *AnalyzeCommand) Execute(ctx context.Context, opts AnalyzeOptions) (*AnalyzeReport, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, it.settings.ScanTimeout())
	defer cancel()

	report := &AnalyzeReport{}

	manifests, scans, walkErr := it.discover(ctx, root)
	if walkErr != nil {
		if !errors.Is(walkErr, entities.ErrScanTimeout) {
			return nil, walkErr
		}
		logger.Warn("scan timed out during discovery, reporting partial results")
		report.Partial = true
	}
	if len(manifests) == 0 {
		fmt.Fprintln(opts.Out, "No dependency manifests found.")
		return report, nil
	}

	docs, usages, partial := it.parseAndScan(ctx, manifests, scans)
	report.Partial = report.Partial || partial

	report.Findings = entities.Reconcile(docs, usages, it.settings)
	it.printFindings(opts.Out, report.Findings, report.Partial)

	if !opts.Fix || len(report.Findings) == 0 {
		return report, nil
	}
	if applyErr := it.fix(docs, report, opts); applyErr != nil {
		return report, applyErr
	}
	return report, nil
}

// discover walks the tree once, collecting manifests for parsing and
// source files for usage scanning.
func (it *AnalyzeCommand) discover(
	ctx context.Context,
	root string,
) ([]manifestTask, []scanTask, error) {
	extToScanner := map[string]domainRepos.ScannerRepository{}
	for _, s := range it.scanners.All() {
		for _, ext := range s.Extensions() {
			extToScanner[ext] = s
		}
	}

	var manifests []manifestTask
	var scans []scanTask
	err := it.workspace.WalkSources(ctx, root, it.settings, func(path, content string) error {
		if adapter := it.adapters.Detect(path); adapter != nil {
			manifests = append(manifests, manifestTask{path: path, adapter: adapter})
			return nil
		}
		if scanner, ok := extToScanner[filepath.Ext(path)]; ok {
			scans = append(scans, scanTask{path: path, content: content, scanner: scanner})
		}
		return nil
	})
	return manifests, scans, err
}

// parseAndScan runs manifest parsing and usage scanning concurrently and
// joins on completion. A failed file degrades that file only.
func (it *AnalyzeCommand) parseAndScan(
	ctx context.Context,
	manifests []manifestTask,
	scans []scanTask,
) ([]*entities.ManifestDocument, []entities.UsageRecord, bool) {
	var mu sync.Mutex
	docs := make([]*entities.ManifestDocument, 0, len(manifests))
	var usages []entities.UsageRecord
	partial := false

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())

	for _, task := range manifests {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			doc := it.parseManifest(task)
			mu.Lock()
			docs = append(docs, doc)
			mu.Unlock()
			return nil
		})
	}
	for _, task := range scans {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			records := task.scanner.ScanFile(task.path, task.content)
			mu.Lock()
			usages = append(usages, records...)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.WithError(err).Warn("scan interrupted, reporting partial results")
		partial = true
	}
	return docs, usages, partial
}

// parseManifest reads and parses one manifest. Read or parse failures
// yield a document whose diagnostics surface as Unparseable findings
// instead of aborting the run.
func (it *AnalyzeCommand) parseManifest(task manifestTask) *entities.ManifestDocument {
	doc := &entities.ManifestDocument{
		Path:      task.path,
		Dialect:   task.adapter.Name(),
		Ecosystem: task.adapter.Ecosystem(),
	}

	source, err := it.workspace.ReadFile(task.path)
	if err != nil {
		doc.AddDiagnostic(0, fmt.Sprintf("unreadable manifest: %v", err))
		return doc
	}
	parsed, err := task.adapter.Parse(source.Text, task.path)
	if err != nil {
		doc.AddDiagnostic(0, fmt.Sprintf("parse failed: %v", err))
		return doc
	}
	parsed.Checksum = source.Checksum
	return parsed
}

// printFindings writes the ordered findings report.
func (it *AnalyzeCommand) printFindings(out io.Writer, findings []entities.Finding, partial bool) {
	if partial {
		fmt.Fprintln(out, "warning: analysis incomplete, results may be missing findings")
	}
	if len(findings) == 0 {
		fmt.Fprintln(out, "No findings.")
		return
	}

	for _, f := range findings {
		location := f.ManifestPath
		if f.Entry != nil {
			location = fmt.Sprintf("%s:%d", f.ManifestPath, f.Entry.SourceSpan.StartLine)
		}
		fmt.Fprintf(out, "[%s] %s: %s (%s) %s\n", f.Severity, f.Kind, f.Subject, f.Ecosystem, location)
		if f.Detail != "" {
			fmt.Fprintf(out, "    %s\n", f.Detail)
		}
		if f.OtherEntry != nil {
			fmt.Fprintf(out, "    also declared at %s:%d\n", f.OtherPath, f.OtherEntry.SourceSpan.StartLine)
		}
	}
	fmt.Fprintf(out, "%d finding(s)\n", len(findings))
}

// acceptedFixKinds are the finding kinds --fix acts on.
var acceptedFixKinds = map[entities.FindingKind]bool{
	entities.FindingUnused:      true,
	entities.FindingMissing:     true,
	entities.FindingConflicting: true,
	entities.FindingOutdated:    true,
}

// fix plans, previews and applies patches per manifest, each behind its
// own confirmation.
func (it *AnalyzeCommand) fix(
	docs []*entities.ManifestDocument,
	report *AnalyzeReport,
	opts AnalyzeOptions,
) error {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	resolutions := it.resolutions(report.Findings, opts.Resolutions)
	insertTargets := it.insertTargets(docs)
	confirm := bufio.NewReader(opts.In)

	for _, doc := range docs {
		adapter := it.adapters.Get(doc.Dialect)
		if adapter == nil {
			continue
		}

		plan, skipped, err := entities.Plan(doc, report.Findings, acceptedFixKinds,
			resolutions, adapter, insertTargets[doc.Path])
		if err != nil {
			logger.WithError(err).WithField("path", doc.Path).Error("planning failed, skipping file")
			continue
		}
		for _, s := range skipped {
			logger.WithField("subject", s.Subject).Infof("no fix available for %s finding", s.Kind)
		}
		if plan.Empty() {
			continue
		}

		original := doc.Render()
		modified, err := plan.Apply(original)
		if err != nil {
			logger.WithError(err).WithField("path", doc.Path).Error("patch refused, skipping file")
			continue
		}

		diff, err := entities.UnifiedDiff(doc.Path, original, modified)
		if err != nil {
			logger.WithError(err).WithField("path", doc.Path).Error("diff failed, skipping file")
			continue
		}
		fmt.Fprint(opts.Out, diff)

		confirmed := opts.Yes
		if !confirmed {
			confirmed = askConfirmation(confirm, opts.Out, doc.Path)
		}

		status, err := it.workspace.Apply(doc.Path, doc.Checksum, modified, confirmed)
		if err != nil {
			if errors.Is(err, entities.ErrStaleFile) {
				logger.WithField("path", doc.Path).Error("file changed since analysis, not applying")
				report.Aborted++
				continue
			}
			return err
		}
		switch status {
		case entities.ApplyApplied:
			fmt.Fprintf(opts.Out, "applied %s\n", doc.Path)
			report.Applied++
		case entities.ApplyAborted:
			fmt.Fprintf(opts.Out, "skipped %s\n", doc.Path)
			report.Aborted++
		}
	}
	return nil
}

// resolutions merges explicit --resolve values over the freshness-derived
// defaults for outdated findings.
func (it *AnalyzeCommand) resolutions(
	findings []entities.Finding,
	explicit map[string]string,
) map[string]string {
	resolved := map[string]string{}
	for _, f := range findings {
		baseline, ok := it.settings.Freshness[f.Subject]
		if !ok {
			continue
		}
		switch f.Kind {
		case entities.FindingOutdated, entities.FindingMissing:
			resolved[f.Subject] = defaultResolution(f.Ecosystem, baseline)
		}
	}
	for subject, specifier := range explicit {
		resolved[subject] = specifier
	}
	return resolved
}

// defaultResolution renders a freshness baseline in the idiom of the
// target ecosystem.
func defaultResolution(ecosystem, baseline string) string {
	switch ecosystem {
	case entities.EcosystemPython:
		return ">=" + baseline
	case entities.EcosystemJavaScript:
		return "^" + baseline
	default:
		return baseline
	}
}

// insertTargets picks one manifest per ecosystem to receive missing
// dependencies: the first (by path) that accepts inserts.
func (it *AnalyzeCommand) insertTargets(docs []*entities.ManifestDocument) map[string]bool {
	targets := map[string]bool{}
	chosen := map[string]string{}
	for _, doc := range docs {
		if _, done := chosen[doc.Ecosystem]; done {
			continue
		}
		adapter := it.adapters.Get(doc.Dialect)
		if adapter == nil {
			continue
		}
		if _, ok := adapter.InsertAnchor(doc); !ok {
			continue
		}
		chosen[doc.Ecosystem] = doc.Path
		targets[doc.Path] = true
	}
	return targets
}

// askConfirmation prompts on the run's output and reads one line; only an
// explicit yes proceeds.
func askConfirmation(in *bufio.Reader, out io.Writer, path string) bool {
	fmt.Fprintf(out, "Apply changes to %s? [y/N] ", path)
	answer, err := in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
