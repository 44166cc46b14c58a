package cmd

import (
	"bytes"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/layout"
	"github.com/itsmostafa/docai/internal/render"
	"github.com/itsmostafa/docai/internal/workflow"
)

var (
	renderLayout     string
	renderPage       int
	renderOut        string
	renderWidth      int
	renderTokens     bool
	renderHighlight  string
	renderBackground string
	renderRequest    string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Draw the character boxes of a page to PNG",
	Long: `Draw every character box of one page, optionally over the page image.
The page image is read from --background (path or s3:// URI) or downloaded
from the OCR request given with --request.`,
	Example: `  docai render --layout contract.layout --page 1 --out page1.png --width 850
  docai render --layout contract.layout --page 2 --highlight 822:900 --request <ocr request id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd, renderRequest != "")
		if err != nil {
			return err
		}
		blobs := blobsFor(cfg)
		ctx := cmd.Context()

		x, err := workflow.LoadIndex(ctx, blobs, renderLayout)
		if err != nil {
			return err
		}

		opts := render.Options{Width: renderWidth, Tokens: renderTokens, Label: true}
		if renderHighlight != "" {
			r, err := parseRange(renderHighlight)
			if err != nil {
				return err
			}
			opts.Highlight = &r
		}

		var bg []byte
		switch {
		case renderBackground != "":
			bg, err = blobs.Read(ctx, renderBackground)
		case renderRequest != "":
			var client *docai.Client
			client, err = docai.NewClient(cfg.BaseURL(), cfg.Token, docai.WithLogger(log))
			if err == nil {
				bg, err = client.OCRPageImage(ctx, renderRequest, renderPage)
			}
		}
		if err != nil {
			return err
		}
		if bg != nil {
			if opts.Background, err = render.DecodeImage(bytes.NewReader(bg)); err != nil {
				return err
			}
		}

		img, err := render.Page(x, renderPage, opts)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := render.EncodePNG(&buf, img); err != nil {
			return err
		}
		if err := blobs.Write(ctx, renderOut, buf.Bytes(), "image/png"); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Page %d written to %s (%s)\n", renderPage, renderOut, size(img))
		return nil
	},
}

// parseRange parses "start:end" as a half-open character range.
func parseRange(s string) (layout.CharacterRange, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return layout.CharacterRange{}, fmt.Errorf("invalid range %q: want start:end", s)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return layout.CharacterRange{}, fmt.Errorf("invalid range start %q: %w", a, err)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return layout.CharacterRange{}, fmt.Errorf("invalid range end %q: %w", b, err)
	}
	if start < 0 || end < start {
		return layout.CharacterRange{}, fmt.Errorf("invalid range %q", s)
	}
	return layout.CharacterRange{Start: start, End: end}, nil
}

func size(img image.Image) string {
	b := img.Bounds()
	return fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
}

func init() {
	renderCmd.Flags().StringVarP(&renderLayout, "layout", "l", "", "Layouts payload (path or s3:// URI)")
	renderCmd.Flags().IntVarP(&renderPage, "page", "p", 1, "Page number (1-based)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "page.png", "Output PNG (path or s3:// URI)")
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 0, "Scale to this width in pixels (0 = page size)")
	renderCmd.Flags().BoolVar(&renderTokens, "tokens", false, "Outline words as well as characters")
	renderCmd.Flags().StringVar(&renderHighlight, "highlight", "", "Fill the characters in start:end")
	renderCmd.Flags().StringVar(&renderBackground, "background", "", "Page image to draw under the boxes")
	renderCmd.Flags().StringVar(&renderRequest, "request", "", "OCR request id to download the page image from")
	renderCmd.MarkFlagRequired("layout")
	renderCmd.MarkFlagsMutuallyExclusive("background", "request")

	rootCmd.AddCommand(renderCmd)
}
