package container

import (
	"fmt"
	"io"
	"text/tabwriter"
)

func PrintImagesTable(w io.Writer, images []Image) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "STACK\tBASE\tIMAGE\tID\tCREATED\tSIZE")
	for _, img := range images {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			img.Stack,
			img.Base.String(),
			img.Name,
			img.ID,
			img.Created.Local().Format("2006-01-02 15:04"),
			formatSize(img.Size),
		)
	}
	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
