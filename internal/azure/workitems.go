package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/afero"

	"github.com/Ilia01/adoflow/internal/models"
)

const (
	FieldState       = "/fields/System.State"
	FieldDescription = "/fields/System.Description"
	FieldTestCycle   = "/fields/Custom.CiclodePruebas"
	FieldHistory     = "/fields/System.History"

	// StatusFail is the only test status that triggers evidence upload. The match is exact.
	StatusFail = "FAIL"

	evidenceComment = `<div>Evidencia: <a href="%s">%s</a></div>`
)

type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type PatchDocument []PatchOperation

func add(path string, value any) PatchOperation {
	return PatchOperation{Op: "add", Path: path, Value: value}
}

func (c *Client) workItemURL(project string, workItemID int) string {
	return c.buildURL(project, fmt.Sprintf("wit/workitems/%d?api-version=%s", workItemID, apiVersion))
}

// WorkItemEditURL is the browser page of a work item.
func (c *Client) WorkItemEditURL(project string, workItemID int) string {
	return fmt.Sprintf("%s/%s/_workitems/edit/%d", c.baseURL, project, workItemID)
}

func (c *Client) UpdateWorkItemState(ctx context.Context, project string, workItemID int, state, description, testCycle string) (*models.WorkItem, error) {
	doc := PatchDocument{
		add(FieldState, state),
		add(FieldDescription, description),
		add(FieldTestCycle, testCycle),
	}

	c.logger.Printf("PATCH %s", c.workItemURL(project, workItemID))
	item, status, err := c.patch(ctx, project, workItemID, doc)
	if status != 0 {
		c.logger.Printf("response status: %d", status)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// PatchWorkItem applies doc to a single work item and returns the updated item.
func (c *Client) PatchWorkItem(ctx context.Context, project string, workItemID int, doc PatchDocument) (*models.WorkItem, error) {
	item, _, err := c.patch(ctx, project, workItemID, doc)
	return item, err
}

func (c *Client) patch(ctx context.Context, project string, workItemID int, doc PatchDocument) (*models.WorkItem, int, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.workItemURL(project, workItemID), bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", contentTypeJSONPatch)
	c.applyAuth(req)

	var item models.WorkItem
	status, err := c.do(req, &item)
	if err != nil {
		return nil, status, err
	}
	return &item, status, nil
}

// UploadAttachment stores data as a work item attachment. The returned reference is
// not linked to any work item yet.
func (c *Client) UploadAttachment(ctx context.Context, project, fileName string, data []byte) (*models.AttachmentReference, error) {
	target := c.buildURL(project, fmt.Sprintf("wit/attachments?fileName=%s&api-version=%s", url.QueryEscape(fileName), apiVersion))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentTypeBinary)
	c.applyAuth(req)

	var ref models.AttachmentReference
	if _, err := c.do(req, &ref); err != nil {
		return nil, err
	}
	if ref.URL == "" {
		return nil, errors.New("attachment response has no url")
	}
	return &ref, nil
}

// AttachScreenshotIfFailed uploads the screenshot and links it in the work item
// history when testStatus is StatusFail. For any other status it does nothing and
// returns a nil item.
func (c *Client) AttachScreenshotIfFailed(ctx context.Context, project string, workItemID int, screenshotPath, testStatus string) (*models.WorkItem, error) {
	if testStatus != StatusFail {
		return nil, nil
	}

	data, err := afero.ReadFile(c.fs, screenshotPath)
	if err != nil {
		return nil, &FileAccessError{Path: screenshotPath, Err: err}
	}

	c.logger.Printf("uploading screenshot as attachment: %s", screenshotPath)
	ref, err := c.UploadAttachment(ctx, project, screenshotPath, data)
	if err != nil {
		return nil, err
	}

	doc := PatchDocument{
		add(FieldHistory, fmt.Sprintf(evidenceComment, ref.URL, ref.URL)),
	}

	c.logger.Printf("adding screenshot link comment to work item: %s", c.workItemURL(project, workItemID))
	item, status, err := c.patch(ctx, project, workItemID, doc)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("response status: %d", status)
	return item, nil
}
