package engine

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/drummonds/goPDFView/database"
	"github.com/drummonds/goPDFView/document"
	"github.com/labstack/echo/v4"
)

// GetPageImage rasterizes one page of a document as PNG
// @Summary Render a page image
// @Description Rasterize a page at the requested scale and clockwise rotation
// @Tags Rendering
// @Produce image/png
// @Param id path string true "Document ULID"
// @Param page path int true "Zero-based page index"
// @Param scale query number false "Render scale, 1 = 72 DPI (default: 1, clamped to the configured maximum)"
// @Param rotation query int false "Clockwise rotation in degrees, multiple of 90 (default: 0)"
// @Success 200 {file} file "PNG image of the page"
// @Failure 400 {object} map[string]interface{} "Bad page, scale or rotation"
// @Failure 404 {object} map[string]interface{} "Document or page not found"
// @Failure 500 {object} map[string]interface{} "Render failed"
// @Router /document/{id}/page/{page}/image [get]
func (serverHandler *ServerHandler) GetPageImage(context echo.Context) error {
	ulidStr := context.Param("id")
	pageIndex, err := strconv.Atoi(context.Param("page"))
	if err != nil {
		return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "page must be an integer"})
	}

	scale := 1.0
	if scaleParam := context.QueryParam("scale"); scaleParam != "" {
		scale, err = strconv.ParseFloat(scaleParam, 64)
		if err != nil || scale <= 0 {
			return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "scale must be a positive number"})
		}
	}
	if maxScale := serverHandler.ServerConfig.MaxRenderScale; maxScale > 0 && scale > maxScale {
		scale = maxScale
	}

	rotation := 0
	if rotationParam := context.QueryParam("rotation"); rotationParam != "" {
		rotation, err = strconv.Atoi(rotationParam)
		if err != nil {
			return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "rotation must be an integer"})
		}
	}
	rotation = ((rotation % 360) + 360) % 360
	if rotation%90 != 0 {
		return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "rotation must be a multiple of 90"})
	}

	foundDocument, httpStatus, err := database.FetchDocument(ulidStr, serverHandler.DB)
	if err != nil {
		Logger.Error("GetPageImage API call failed", "error", err)
		return context.JSON(httpStatus, err)
	}
	if pageIndex < 0 || pageIndex >= foundDocument.PageCount {
		return context.JSON(http.StatusNotFound, map[string]interface{}{"error": "page index out of range"})
	}

	img, err := renderPage(foundDocument.Path, pageIndex, scale, rotation)
	if err != nil {
		Logger.Error("Unable to render page", "ulid", ulidStr, "page", pageIndex, "error", err)
		return context.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "render failed"})
	}

	return writePNG(context, img)
}

// GetThumbnail renders the first page scaled down to the configured width
// @Summary Render a document thumbnail
// @Description Rasterize the first page and resize it for library cards
// @Tags Rendering
// @Produce image/png
// @Param id path string true "Document ULID"
// @Success 200 {file} file "PNG thumbnail"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Failure 500 {object} map[string]interface{} "Render failed"
// @Router /document/{id}/thumbnail [get]
func (serverHandler *ServerHandler) GetThumbnail(context echo.Context) error {
	ulidStr := context.Param("id")
	foundDocument, httpStatus, err := database.FetchDocument(ulidStr, serverHandler.DB)
	if err != nil {
		Logger.Error("GetThumbnail API call failed", "error", err)
		return context.JSON(httpStatus, err)
	}

	width := serverHandler.ServerConfig.ThumbnailWidth
	if width <= 0 {
		width = 320
	}

	img, err := renderPage(foundDocument.Path, 0, 1, 0)
	if err != nil {
		Logger.Error("Unable to render thumbnail", "ulid", ulidStr, "error", err)
		return context.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "render failed"})
	}
	thumbnail := imaging.Resize(img, width, 0, imaging.Lanczos)
	thumbnail = imaging.Sharpen(thumbnail, 1.0)

	return writePNG(context, thumbnail)
}

// renderPage rasterizes one page of the PDF at path. The viewer rotates
// clockwise while imaging rotates counter-clockwise, hence the swap.
func renderPage(path string, pageIndex int, scale float64, rotation int) (image.Image, error) {
	fitzDoc, err := document.OpenFitz(filepath.FromSlash(path))
	if err != nil {
		return nil, err
	}
	defer fitzDoc.Close()

	img, err := fitzDoc.Image(pageIndex, scale)
	if err != nil {
		return nil, err
	}
	switch rotation {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}
	return img, nil
}

func writePNG(context echo.Context, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		Logger.Error("Unable to encode PNG image", "error", err)
		return context.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "encode failed"})
	}
	return context.Blob(http.StatusOK, "image/png", buf.Bytes())
}
