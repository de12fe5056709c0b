package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Ilia01/adoflow/internal/azure"
	"github.com/Ilia01/adoflow/internal/config"
	"github.com/Ilia01/adoflow/internal/credential"
	"github.com/Ilia01/adoflow/internal/keywords"
	"github.com/Ilia01/adoflow/internal/models"
	"github.com/Ilia01/adoflow/internal/screenshot"
	"github.com/Ilia01/adoflow/internal/utils"
)

type azureService interface {
	keywords.WorkItemClient
	TestConnection(ctx context.Context) error
	WorkItemEditURL(project string, workItemID int) string
}

var (
	azureFactory = func(settings *config.Settings, logger azure.Logger) azureService {
		return azure.NewClient(settings.Azure.OrganizationURL, settings.Azure.Token, azure.WithLogger(logger))
	}

	locatorFactory = func() *screenshot.Locator {
		return screenshot.NewLocator(nil)
	}

	storeToken = credential.Set
	fetchToken = credential.Get
	openURL    = utils.OpenURL
)

func newLogger() *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "adoflow: ", log.LstdFlags)
}

func newLibrary(settings *config.Settings) *keywords.Library {
	return keywords.NewLibrary(azureFactory(settings, newLogger()), locatorFactory())
}

func handleInit(ctx context.Context) error {
	fmt.Println(utils.Cyan(utils.Bold("adoflow Configuration Setup")))
	fmt.Println()
	fmt.Println(utils.Dim("This will store your settings in ~/.adoflow/config.toml"))
	fmt.Println(utils.Dim("The file will be created with read-only permissions (600)"))
	fmt.Println()

	orgURL, err := utils.Prompt("Organization URL (e.g., https://dev.azure.com/<org>)")
	if err != nil {
		return err
	}
	project, err := utils.Prompt("Default project")
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(utils.Dim("To create a Personal Access Token:"))
	fmt.Println(utils.Dim("  1. Go to User settings → Personal access tokens"))
	fmt.Println(utils.Dim("  2. Grant the Work Items (Read & write) scope"))
	fmt.Println(utils.Dim("  3. Copy and paste it here"))
	token, err := utils.PromptPassword("Personal Access Token")
	if err != nil {
		return err
	}

	store, err := utils.PromptWithDefault("Store token in (file/keyring)", config.TokenStoreFile)
	if err != nil {
		return err
	}
	store = strings.ToLower(strings.TrimSpace(store))
	if store != config.TokenStoreKeyring {
		store = config.TokenStoreFile
	}

	fmt.Println()
	fmt.Println(utils.Bold("=== Screenshots ==="))
	dir, err := utils.PromptWithDefault("Screenshot directory", ".")
	if err != nil {
		return err
	}
	pattern, err := utils.PromptWithDefault("Screenshot name prefix", screenshot.DefaultPattern)
	if err != nil {
		return err
	}

	settings := &config.Settings{
		Azure: config.AzureConfig{
			OrganizationURL: strings.TrimSpace(orgURL),
			Project:         strings.TrimSpace(project),
			Token:           strings.TrimSpace(token),
			TokenStore:      store,
		},
		Screenshots: config.ScreenshotsConfig{
			Directory: strings.TrimSpace(dir),
			Pattern:   strings.TrimSpace(pattern),
		},
	}

	if store == config.TokenStoreKeyring {
		if err := storeToken(credential.TokenKey, settings.Azure.Token); err != nil {
			return err
		}
	}
	if err := settings.Save(); err != nil {
		return err
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(utils.Green(utils.Bold("Configuration saved!")))
	fmt.Printf("  Location: %s\n\n", utils.BrightWhite(configPath))

	fmt.Print(utils.Dim("  Testing Azure DevOps connection... "))
	if err := azureFactory(settings, newLogger()).TestConnection(ctx); err != nil {
		fmt.Println(utils.Red("✗"))
		fmt.Println()
		fmt.Printf("  %s %v\n", utils.Yellow("Warning:"), err)
	} else {
		fmt.Println(utils.Green("✓"))
	}

	fmt.Println()
	fmt.Println(utils.Green(utils.Bold("Setup complete!")))
	if store == config.TokenStoreFile {
		fmt.Println(utils.Yellow("Keep your token secure!"))
		fmt.Println(utils.Dim("  Never commit config.toml to git"))
	}

	return nil
}

func handleUpdateState(ctx context.Context, project, workItemID, state, description, testCycle string, jsonOutput bool) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	item, err := newLibrary(settings).UpdateState(ctx, project, workItemID, state, description, testCycle)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(item)
	}
	fmt.Println(utils.Green(utils.Bold(fmt.Sprintf("✓ Work item %d updated", item.ID))))
	printWorkItem(item)
	return nil
}

func handleAttachIfFailed(ctx context.Context, project, workItemID, screenshotPath, testStatus string, jsonOutput bool) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	item, err := newLibrary(settings).AttachIfFailed(ctx, project, workItemID, screenshotPath, testStatus)
	if err != nil {
		return err
	}

	if item == nil {
		if !jsonOutput {
			fmt.Println(utils.Dim(fmt.Sprintf("Test status is %q, nothing attached", testStatus)))
		}
		return nil
	}
	if jsonOutput {
		return printJSON(item)
	}
	fmt.Println(utils.Green(utils.Bold(fmt.Sprintf("✓ Screenshot linked on work item %d", item.ID))))
	printWorkItem(item)
	return nil
}

// handleLatestScreenshot works without a config file; the directory and pattern
// fall back to the current directory and the default prefix. An explicit
// --pattern, even an empty one, is used as given.
func handleLatestScreenshot(directory, pattern string, patternSet bool) error {
	if directory == "" || !patternSet {
		settings, err := config.Load()
		if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
			return err
		}
		if settings != nil {
			if directory == "" {
				directory = settings.Screenshots.Directory
			}
			if !patternSet {
				pattern = settings.Screenshots.Pattern
			}
		}
	}
	if directory == "" {
		directory = "."
	}
	if !patternSet && pattern == "" {
		pattern = screenshot.DefaultPattern
	}

	path, err := locatorFactory().FindLatest(directory, pattern)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func handleRun(ctx context.Context, name string, args []string) error {
	lib := keywords.NewLibrary(nil, locatorFactory())
	kw, ok := lib.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s (run 'adoflow keywords' to list them)", keywords.ErrUnknownKeyword, name)
	}
	// Only the screenshot lookup runs without Azure DevOps settings.
	if kw.Name != keywords.GetLatestScreenshotPath {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		lib = newLibrary(settings)
	}

	out, err := lib.Run(ctx, name, args)
	if err != nil {
		return err
	}

	switch v := out.(type) {
	case nil:
		return nil
	case string:
		fmt.Println(v)
		return nil
	default:
		return printJSON(v)
	}
}

func handleKeywords() error {
	fmt.Println(utils.Cyan(utils.Bold("Available Keywords")))
	fmt.Println()
	for _, kw := range keywords.NewLibrary(nil, nil).Keywords() {
		fmt.Printf("  %s  %s\n", utils.Bold(utils.BrightWhite(kw.Name)), utils.Dim(strings.Join(kw.Args, ", ")))
		fmt.Printf("    %s\n", kw.Doc)
	}
	return nil
}

func handleOpen(project, workItemID string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(strings.TrimSpace(workItemID))
	if err != nil {
		return fmt.Errorf("invalid work item id: %s", workItemID)
	}
	if project == "" {
		project = settings.Azure.Project
	}
	if project == "" {
		return errors.New("no project given. Use --project or set azure.project")
	}

	target := azureFactory(settings, newLogger()).WorkItemEditURL(project, id)
	fmt.Println(utils.Dim(fmt.Sprintf("Opening %s", target)))
	return openURL(target)
}

func handleTestConnection(ctx context.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	fmt.Println(utils.Cyan("Testing Azure DevOps API connection..."))
	if err := azureFactory(settings, newLogger()).TestConnection(ctx); err != nil {
		return err
	}
	fmt.Println(utils.Green(utils.Bold("✓ Connected to " + settings.Azure.OrganizationURL)))
	return nil
}

func handleConfigShow() error {
	settings, err := config.Load()
	if err != nil {
		return wrapConfigErr(err)
	}
	printConfig(settings)
	return nil
}

// handleConfigSet edits the file only; values coming from ADOFLOW_* or .env
// are never written back.
func handleConfigSet(key, value string) error {
	settings, err := config.LoadFile()
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return err
		}
		settings = &config.Settings{}
	}
	previousStore := settings.Azure.TokenStore
	if err := settings.Set(key, value); err != nil {
		return err
	}

	switch {
	case key == "azure.token" && settings.Azure.TokenStore == config.TokenStoreKeyring:
		if err := storeToken(credential.TokenKey, value); err != nil {
			return err
		}
	case key == "azure.token_store" && value == config.TokenStoreKeyring && previousStore != config.TokenStoreKeyring:
		// Save drops the token from the file, so move it first.
		if settings.Azure.Token != "" {
			if err := storeToken(credential.TokenKey, settings.Azure.Token); err != nil {
				return err
			}
		}
	case key == "azure.token_store" && value == config.TokenStoreFile && previousStore == config.TokenStoreKeyring:
		if settings.Azure.Token == "" {
			token, err := fetchToken(credential.TokenKey)
			if err != nil && !errors.Is(err, credential.ErrNotFound) {
				return err
			}
			settings.Azure.Token = token
		}
	}

	if err := settings.Save(); err != nil {
		return err
	}
	if key == "azure.token" {
		value = config.MaskToken(value)
	}
	fmt.Println(utils.Green(utils.Bold(fmt.Sprintf("✓ Updated %s to: %s", key, value))))
	return nil
}

func handleConfigValidate(ctx context.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	fmt.Println(utils.Cyan(utils.Bold("Validating configuration...")))
	fmt.Println()
	fmt.Print(utils.Dim("  Testing Azure DevOps connection... "))
	if err := azureFactory(settings, newLogger()).TestConnection(ctx); err != nil {
		fmt.Println(utils.Red("✗"))
		fmt.Println(utils.Yellow(fmt.Sprintf("  Azure DevOps validation failed: %v", err)))
	} else {
		fmt.Println(utils.Green("✓"))
	}
	if settings.Azure.Project == "" {
		fmt.Println(utils.Yellow("  Warning: no default project set"))
	}
	return nil
}

func handleConfigPath() error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, wrapConfigErr(err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func wrapConfigErr(err error) error {
	if errors.Is(err, config.ErrConfigNotFound) {
		return fmt.Errorf("%w. Run 'adoflow init' first or set ADOFLOW_AZURE_ORGANIZATION_URL", err)
	}
	return err
}

func printConfig(settings *config.Settings) {
	fmt.Println(utils.Cyan(utils.Bold("Current Configuration")))
	fmt.Println()

	fmt.Println(utils.Bold("[azure]"))
	fmt.Printf("  %s %s\n", utils.Dim("organization_url:"), utils.BrightWhite(settings.Azure.OrganizationURL))
	fmt.Printf("  %s %s\n", utils.Dim("project:"), utils.BrightWhite(settings.Azure.Project))
	fmt.Printf("  %s %s\n", utils.Dim("token_store:"), utils.BrightWhite(settings.Azure.TokenStore))
	fmt.Printf("  %s %s\n", utils.Dim("token:"), utils.Yellow(config.MaskToken(settings.Azure.Token)))

	fmt.Println()
	fmt.Println(utils.Bold("[screenshots]"))
	fmt.Printf("  %s %s\n", utils.Dim("directory:"), utils.BrightWhite(settings.Screenshots.Directory))
	fmt.Printf("  %s %s\n", utils.Dim("pattern:"), utils.BrightWhite(settings.Screenshots.Pattern))
}

func printWorkItem(item *models.WorkItem) {
	fmt.Printf("  %s %s\n", utils.Bold("ID:"), utils.BrightWhite(strconv.Itoa(item.ID)))
	fmt.Printf("  %s %d\n", utils.Bold("Revision:"), item.Rev)
	if state := item.State(); state != "" {
		fmt.Printf("  %s %s\n", utils.Bold("State:"), colorState(state))
	}
}

func colorState(state string) string {
	switch state {
	case "Active", "In Progress":
		return utils.Green(state)
	case "New", "To Do":
		return utils.Yellow(state)
	case "Resolved":
		return utils.Blue(state)
	case "Closed", "Done":
		return utils.Dim(state)
	default:
		return state
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
