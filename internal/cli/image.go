package cli

import (
	"fmt"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/imaging"
	"github.com/spf13/cobra"
)

var (
	flagImageGray   bool
	flagImageWidth  int
	flagImageHeight int
	flagImageOut    string
	flagImageWait   time.Duration
	flagImageTitle  string
)

func init() {
	imageCmd.PersistentFlags().BoolVar(&flagImageGray, "gray", false, "load as single-channel grayscale (default: image.color)")

	imageResizeCmd.Flags().IntVar(&flagImageWidth, "width", 0, "target width (default: image.resize_width)")
	imageResizeCmd.Flags().IntVar(&flagImageHeight, "height", 0, "target height (default: image.resize_height)")
	imageResizeCmd.Flags().StringVarP(&flagImageOut, "out", "O", "", "save the resized image here (png, jpg, bmp, tiff)")

	imageShowCmd.Flags().DurationVar(&flagImageWait, "wait", -1, "close after this long (default: image.show_timeout_ms, 0 waits for a key)")
	imageShowCmd.Flags().StringVar(&flagImageTitle, "title", "", "viewer title (default: the path)")

	imageCmd.AddCommand(imageInfoCmd)
	imageCmd.AddCommand(imageResizeCmd)
	imageCmd.AddCommand(imageShowCmd)

	rootCmd.AddCommand(imageCmd)
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Load, resize and view images",
}

type imageView struct {
	Path     string `json:"path"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	SavedTo  string `json:"saved_to,omitempty"`
}

func (v imageView) String() string {
	s := fmt.Sprintf("%s: %dx%d, %d channel(s)", v.Path, v.Width, v.Height, v.Channels)
	if v.SavedTo != "" {
		s += ", saved to " + v.SavedTo
	}
	return s
}

func loadImage(path string) (*imaging.Handle, error) {
	color := appConfig.Image.Color && !flagImageGray
	h := imaging.New(imaging.Path{Name: path, Color: color})
	if err := h.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

func viewOf(path string, h *imaging.Handle) imageView {
	b := h.Bounds()
	return imageView{Path: path, Width: b.Dx(), Height: b.Dy(), Channels: h.Channels()}
}

var imageInfoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Print dimensions and channel count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadImage(args[0])
		if err != nil {
			return err
		}
		return newWriter(cmd).Write(viewOf(args[0], h))
	},
}

var imageResizeCmd = &cobra.Command{
	Use:   "resize <path>",
	Short: "Resize with bilinear interpolation, optionally saving the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadImage(args[0])
		if err != nil {
			return err
		}
		dims := imaging.Dims{Height: appConfig.Image.ResizeHeight, Width: appConfig.Image.ResizeWidth}
		if flagImageHeight != 0 {
			dims.Height = flagImageHeight
		}
		if flagImageWidth != 0 {
			dims.Width = flagImageWidth
		}

		resized, err := h.Resize(dims)
		if err != nil {
			return err
		}
		view := viewOf(args[0], resized)
		if flagImageOut != "" {
			if err := resized.Save(flagImageOut); err != nil {
				return err
			}
			view.SavedTo = flagImageOut
		}
		return newWriter(cmd).Write(view)
	},
}

var imageShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show the image in the terminal until a key press or timeout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadImage(args[0])
		if err != nil {
			return err
		}
		wait := flagImageWait
		if wait < 0 {
			wait = time.Duration(appConfig.Image.ShowTimeoutMs) * time.Millisecond
		}
		title := flagImageTitle
		if title == "" {
			title = args[0]
		}
		return h.Display(cmd.Context(), title, wait)
	},
}
