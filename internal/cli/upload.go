package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fieldcart/backoffice/internal/client/upload"
)

func newUploadCommand() *cobra.Command {
	var maxSizeBytes int64
	var maxImages int

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload one or more images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			files := make([]upload.File, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				files = append(files, upload.File{
					Name:     filepath.Base(path),
					MIMEType: mime.TypeByExtension(filepath.Ext(path)),
					Data:     data,
				})
			}

			limits := upload.Limits{
				MaxSizeBytes:  maxSizeBytes,
				AcceptedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
				MaxImages:     maxImages,
			}

			coordinator := upload.NewCoordinator(a.client, a.logger)
			out := cmd.OutOrStdout()

			if len(files) == 1 {
				url, err := coordinator.Upload(cmd.Context(), files[0], limits)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, url)
				return nil
			}

			result, err := coordinator.UploadMany(cmd.Context(), files, limits)
			if err != nil {
				return err
			}
			for _, url := range result.URLs {
				fmt.Fprintln(out, url)
			}
			for _, r := range result.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", r.Name, r.Err)
			}
			if len(result.Rejected) > 0 {
				return fmt.Errorf("%d of %d files were not uploaded", len(result.Rejected), len(files))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&maxSizeBytes, "max-size", 5*1024*1024, "per-file size limit in bytes")
	cmd.Flags().IntVar(&maxImages, "max-images", 10, "maximum images per batch")

	return cmd
}
