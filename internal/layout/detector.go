// Package layout runs DocLayout-YOLO ONNX inference over rasterized pages
// and decodes detections into document-structural layout boxes.
package layout

import (
	"pdf-translator/internal/logger"
	"pdf-translator/internal/raster"
	"pdf-translator/internal/types"
)

// ConfidenceThreshold is the minimum confidence a detection must reach.
const ConfidenceThreshold = 0.25

// Detect runs the layout model over one rasterized page and returns the
// detections in source-image pixel coordinates.
func Detect(modelPath string, img *raster.PageImage) ([]types.LayoutBox, error) {
	sess, err := sessionFor(modelPath)
	if err != nil {
		return nil, err
	}

	tensor, lb := letterboxImage(img.RGB, img.Width, img.Height)

	data, dims, err := sess.run(tensor)
	if err != nil {
		return nil, err
	}

	boxes := decodeDetections(data, dims, lb)

	logger.Debug("layout detection complete",
		logger.Int("detections", len(boxes)))

	return boxes, nil
}

// decodeDetections interprets the model output in either of the two
// exported forms and maps boxes back to source-image coordinates.
//
// Post-NMS form: [1, N, 6] rows of [x1, y1, x2, y2, conf, classId].
// Raw YOLO form: [1, N, F] or its transpose [1, F, N] with
// F = 4 + numClasses and rows [cx, cy, w, h, class scores...]. The
// transpose is recognized by cols > rows with rows <= 20: the class count
// is small relative to the candidate count, so a small leading dimension
// can only be the feature axis.
func decodeDetections(data []float32, dims []int64, lb Letterbox) []types.LayoutBox {
	if len(dims) != 3 || len(data) == 0 {
		return nil
	}

	if dims[2] == 6 {
		return decodePostNMS(data, int(dims[1]), lb)
	}

	rows, cols := int(dims[1]), int(dims[2])
	if cols > rows && rows <= 20 {
		return decodeRaw(data, rows, cols, true, lb)
	}
	return decodeRaw(data, cols, rows, false, lb)
}

func decodePostNMS(data []float32, n int, lb Letterbox) []types.LayoutBox {
	var boxes []types.LayoutBox
	for i := 0; i < n; i++ {
		row := data[i*6 : i*6+6]
		conf := float64(row[4])
		if conf < ConfidenceThreshold {
			continue
		}
		boxes = append(boxes, makeBox(
			float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3]),
			conf, int(row[5]), lb))
	}
	return boxes
}

// decodeRaw decodes a raw YOLO head. features is the per-detection field
// count, n the detection count. When transposed, the tensor is laid out
// feature-major ([1, F, N]). No NMS is applied here: models without the
// NMS op are a fallback and expected to be rare.
func decodeRaw(data []float32, features, n int, transposed bool, lb Letterbox) []types.LayoutBox {
	numClasses := features - 4
	if numClasses <= 0 {
		return nil
	}

	at := func(det, field int) float64 {
		if transposed {
			return float64(data[field*n+det])
		}
		return float64(data[det*features+field])
	}

	var boxes []types.LayoutBox
	for i := 0; i < n; i++ {
		conf := 0.0
		classID := 0
		for c := 0; c < numClasses; c++ {
			if s := at(i, 4+c); s > conf {
				conf = s
				classID = c
			}
		}
		if conf < ConfidenceThreshold {
			continue
		}

		cx, cy := at(i, 0), at(i, 1)
		w, h := at(i, 2), at(i, 3)
		boxes = append(boxes, makeBox(cx-w/2, cy-h/2, cx+w/2, cy+h/2, conf, classID, lb))
	}
	return boxes
}

// makeBox maps a model-space corner box back to source-image space,
// clamping the origin to the image.
func makeBox(x1, y1, x2, y2, conf float64, classID int, lb Letterbox) types.LayoutBox {
	sx1, sy1 := lb.unmap(x1, y1)
	w := (x2 - x1) / lb.Scale
	h := (y2 - y1) / lb.Scale

	if sx1 < 0 {
		sx1 = 0
	}
	if sy1 < 0 {
		sy1 = 0
	}

	class := types.LayoutClass(classID)
	if classID < 0 || classID >= types.NumLayoutClasses {
		class = types.ClassPlainText
	}

	return types.LayoutBox{
		BBox:       types.ImageBBox{X: sx1, Y: sy1, Width: w, Height: h},
		ClassID:    class,
		ClassName:  class.String(),
		Confidence: conf,
	}
}
