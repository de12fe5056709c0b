package keywords

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilia01/adoflow/internal/models"
	"github.com/Ilia01/adoflow/internal/screenshot"
)

type fakeClient struct {
	updates []updateCall
	attachs []attachCall
	err     error
}

type updateCall struct {
	project                       string
	id                            int
	state, description, testCycle string
}

type attachCall struct {
	project      string
	id           int
	path, status string
}

func (f *fakeClient) UpdateWorkItemState(_ context.Context, project string, id int, state, description, testCycle string) (*models.WorkItem, error) {
	f.updates = append(f.updates, updateCall{project, id, state, description, testCycle})
	if f.err != nil {
		return nil, f.err
	}
	return &models.WorkItem{ID: id, Fields: map[string]any{"System.State": state}}, nil
}

func (f *fakeClient) AttachScreenshotIfFailed(_ context.Context, project string, id int, path, status string) (*models.WorkItem, error) {
	f.attachs = append(f.attachs, attachCall{project, id, path, status})
	if status != "FAIL" {
		return nil, nil
	}
	return &models.WorkItem{ID: id, Rev: 2}, nil
}

func TestRunUpdateWorkItemState(t *testing.T) {
	client := &fakeClient{}
	lib := NewLibrary(client, nil)

	out, err := lib.Run(context.Background(), "Update Work Item State", []string{"Web", "42", "Closed", "ok", "Cycle 1"})
	require.NoError(t, err)

	item, ok := out.(*models.WorkItem)
	require.True(t, ok)
	assert.Equal(t, "Closed", item.State())
	assert.Equal(t, []updateCall{{"Web", 42, "Closed", "ok", "Cycle 1"}}, client.updates)
}

func TestRunMatchesNamesLoosely(t *testing.T) {
	client := &fakeClient{}
	lib := NewLibrary(client, nil)

	for _, name := range []string{"update work item state", "UPDATE_WORK_ITEM_STATE", "UpdateWorkItemState"} {
		_, err := lib.Run(context.Background(), name, []string{"Web", "1", "Active", "", ""})
		require.NoError(t, err, name)
	}
	assert.Len(t, client.updates, 3)
}

func TestRunUnknownKeyword(t *testing.T) {
	lib := NewLibrary(&fakeClient{}, nil)
	_, err := lib.Run(context.Background(), "Delete Work Item", nil)
	assert.True(t, errors.Is(err, ErrUnknownKeyword))
}

func TestRunWrongArity(t *testing.T) {
	client := &fakeClient{}
	lib := NewLibrary(client, nil)

	_, err := lib.Run(context.Background(), UpdateWorkItemState, []string{"Web", "1"})
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, argErr.Error(), "expected 5 arguments, got 2")

	_, err = lib.Run(context.Background(), GetLatestScreenshotPath, []string{"a", "b", "c"})
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, argErr.Error(), "expected 1 to 2 arguments")
	assert.Empty(t, client.updates)
}

func TestRunNonNumericWorkItemID(t *testing.T) {
	client := &fakeClient{}
	lib := NewLibrary(client, nil)

	_, err := lib.Run(context.Background(), AddScreenshotIfFailed, []string{"Web", "abc", "/a.png", "FAIL"})
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Empty(t, client.attachs)
}

func TestRunAttachIfFailed(t *testing.T) {
	client := &fakeClient{}
	lib := NewLibrary(client, nil)

	out, err := lib.Run(context.Background(), AddScreenshotIfFailed, []string{"Web", "7", "/a.png", "PASS"})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = lib.Run(context.Background(), AddScreenshotIfFailed, []string{"Web", "7", "/a.png", "FAIL"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 2, out.(*models.WorkItem).Rev)
	assert.Equal(t, []attachCall{{"Web", 7, "/a.png", "PASS"}, {"Web", 7, "/a.png", "FAIL"}}, client.attachs)
}

func TestRunPropagatesClientErrors(t *testing.T) {
	boom := errors.New("boom")
	lib := NewLibrary(&fakeClient{err: boom}, nil)

	_, err := lib.Run(context.Background(), UpdateWorkItemState, []string{"Web", "1", "a", "b", "c"})
	assert.ErrorIs(t, err, boom)
}

func TestRunGetLatestScreenshotPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Now()
	require.NoError(t, fs.MkdirAll("/out", 0o755))
	for i, name := range []string{"selenium-screenshot-1.png", "selenium-screenshot-2.png", "failure-9.png"} {
		path := filepath.Join("/out", name)
		require.NoError(t, afero.WriteFile(fs, path, []byte("png"), 0o644))
		require.NoError(t, fs.Chtimes(path, now, now.Add(time.Duration(i)*time.Second)))
	}
	lib := NewLibrary(&fakeClient{}, screenshot.NewLocator(fs))

	out, err := lib.Run(context.Background(), GetLatestScreenshotPath, []string{"/out"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "selenium-screenshot-2.png"), out)

	out, err = lib.Run(context.Background(), GetLatestScreenshotPath, []string{"/out", "failure-"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "failure-9.png"), out)

	out, err = lib.Run(context.Background(), GetLatestScreenshotPath, []string{"/out", ""})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "failure-9.png"), out)

	_, err = lib.Run(context.Background(), GetLatestScreenshotPath, []string{"/out", "nothing-"})
	assert.ErrorIs(t, err, screenshot.ErrNotFound)
}

func TestKeywordsListing(t *testing.T) {
	lib := NewLibrary(&fakeClient{}, nil)
	kws := lib.Keywords()
	require.Len(t, kws, 3)
	assert.Equal(t, UpdateWorkItemState, kws[0].Name)
	assert.Equal(t, AddScreenshotIfFailed, kws[1].Name)
	assert.Equal(t, GetLatestScreenshotPath, kws[2].Name)
	assert.Equal(t, "pattern=selenium-screenshot-", kws[2].Args[1])
}
