// Package keywords exposes the work item and screenshot helpers as named keywords
// that a test runner can call with plain string arguments.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ilia01/adoflow/internal/models"
	"github.com/Ilia01/adoflow/internal/screenshot"
)

const (
	UpdateWorkItemState     = "Update Work Item State"
	AddScreenshotIfFailed   = "Add Screenshot to Work Item Comment If Failed"
	GetLatestScreenshotPath = "Get Latest Screenshot Path"
)

var ErrUnknownKeyword = errors.New("unknown keyword")

// ArgumentError reports arguments that do not fit a keyword's signature.
type ArgumentError struct {
	Keyword string
	Reason  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("keyword '%s': %s", e.Keyword, e.Reason)
}

// WorkItemClient is the part of the Azure DevOps client the keywords drive.
type WorkItemClient interface {
	UpdateWorkItemState(ctx context.Context, project string, workItemID int, state, description, testCycle string) (*models.WorkItem, error)
	AttachScreenshotIfFailed(ctx context.Context, project string, workItemID int, screenshotPath, testStatus string) (*models.WorkItem, error)
}

type Keyword struct {
	Name string
	// Args lists argument names; "name=default" marks an optional trailing argument.
	Args []string
	Doc  string

	run func(ctx context.Context, args []string) (any, error)
}

type Library struct {
	client   WorkItemClient
	locator  *screenshot.Locator
	keywords []Keyword
}

func NewLibrary(client WorkItemClient, locator *screenshot.Locator) *Library {
	if locator == nil {
		locator = screenshot.NewLocator(nil)
	}
	l := &Library{client: client, locator: locator}
	l.keywords = []Keyword{
		{
			Name: UpdateWorkItemState,
			Args: []string{"project", "work_item_id", "new_state", "new_description", "new_test_cycle"},
			Doc:  "Sets state, description and test cycle of a work item.",
			run:  l.updateState,
		},
		{
			Name: AddScreenshotIfFailed,
			Args: []string{"project", "work_item_id", "screenshot_path", "test_status"},
			Doc:  "Uploads the screenshot and links it in a work item comment when test_status is FAIL.",
			run:  l.attachIfFailed,
		},
		{
			Name: GetLatestScreenshotPath,
			Args: []string{"directory", "pattern=" + screenshot.DefaultPattern},
			Doc:  "Returns the newest <pattern>*.png file in directory.",
			run:  l.latestScreenshot,
		},
	}
	return l
}

func (l *Library) Keywords() []Keyword {
	out := make([]Keyword, len(l.keywords))
	copy(out, l.keywords)
	return out
}

// Lookup finds a keyword the way test frameworks match names: case-insensitive,
// ignoring spaces and underscores.
func (l *Library) Lookup(name string) (Keyword, bool) {
	want := normalize(name)
	for _, kw := range l.keywords {
		if normalize(kw.Name) == want {
			return kw, true
		}
	}
	return Keyword{}, false
}

func (l *Library) Run(ctx context.Context, name string, args []string) (any, error) {
	kw, ok := l.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyword, name)
	}
	if err := kw.checkArity(len(args)); err != nil {
		return nil, err
	}
	return kw.run(ctx, args)
}

func (kw Keyword) checkArity(n int) error {
	required := 0
	for _, a := range kw.Args {
		if !strings.Contains(a, "=") {
			required++
		}
	}
	if n < required || n > len(kw.Args) {
		expected := strconv.Itoa(required)
		if required != len(kw.Args) {
			expected = fmt.Sprintf("%d to %d", required, len(kw.Args))
		}
		return &ArgumentError{Keyword: kw.Name, Reason: fmt.Sprintf("expected %s arguments, got %d", expected, n)}
	}
	return nil
}

// UpdateState runs the "Update Work Item State" keyword.
func (l *Library) UpdateState(ctx context.Context, project, workItemID, state, description, testCycle string) (*models.WorkItem, error) {
	id, err := parseWorkItemID(UpdateWorkItemState, workItemID)
	if err != nil {
		return nil, err
	}
	return l.client.UpdateWorkItemState(ctx, project, id, state, description, testCycle)
}

// AttachIfFailed runs the "Add Screenshot to Work Item Comment If Failed" keyword.
// A nil item with a nil error means the status was not a failure.
func (l *Library) AttachIfFailed(ctx context.Context, project, workItemID, screenshotPath, testStatus string) (*models.WorkItem, error) {
	id, err := parseWorkItemID(AddScreenshotIfFailed, workItemID)
	if err != nil {
		return nil, err
	}
	return l.client.AttachScreenshotIfFailed(ctx, project, id, screenshotPath, testStatus)
}

func (l *Library) LatestScreenshot(directory, pattern string) (string, error) {
	return l.locator.FindLatest(directory, pattern)
}

func (l *Library) updateState(ctx context.Context, args []string) (any, error) {
	return l.UpdateState(ctx, args[0], args[1], args[2], args[3], args[4])
}

func (l *Library) attachIfFailed(ctx context.Context, args []string) (any, error) {
	item, err := l.AttachIfFailed(ctx, args[0], args[1], args[2], args[3])
	if err != nil || item == nil {
		return nil, err
	}
	return item, nil
}

func (l *Library) latestScreenshot(_ context.Context, args []string) (any, error) {
	pattern := screenshot.DefaultPattern
	if len(args) > 1 {
		pattern = args[1]
	}
	return l.LatestScreenshot(args[0], pattern)
}

func parseWorkItemID(keyword, raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ArgumentError{Keyword: keyword, Reason: fmt.Sprintf("work item id %q is not a number", raw)}
	}
	return id, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(name))
}
