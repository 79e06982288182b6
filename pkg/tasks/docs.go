package tasks

import (
	"context"
	"fmt"
	"path/filepath"
)

// externalHelp compiles the markdown docs into the MAML help file that ships
// inside the published module (platyPS).
func (b *BuildContext) externalHelp(ctx context.Context) error {
	outPath := filepath.Join(b.ModuleOutDir(), "en-US")

	return b.run(ctx, "", b.pwsh(), "-NoProfile", "-Command",
		fmt.Sprintf("New-ExternalHelp -Path '%s' -OutputPath '%s' -Force", b.docsDir(), outPath),
	)
}

// markdownHelp creates or updates the per-cmdlet markdown files from the
// published module (platyPS).
func (b *BuildContext) markdownHelp(ctx context.Context) error {
	return b.run(ctx, "", b.pwsh(), "-NoProfile", "-Command",
		fmt.Sprintf("Import-Module '%s'; Update-MarkdownHelpModule -Path '%s' -AlphabeticParamsOrder", b.ModuleOutDir(), b.docsDir()),
	)
}
