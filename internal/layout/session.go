package layout

import (
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// EnvSharedLibrary names the environment variable that points at the
// onnxruntime shared library when it is not on the default search path.
const EnvSharedLibrary = "ONNXRUNTIME_SHARED_LIBRARY"

// modelSession is a process-wide inference session for one model file.
// Sessions are created lazily on first use and reused for every subsequent
// page; they are never destroyed. Run calls are serialized because the
// underlying runtime does not document concurrent Run on one session.
type modelSession struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	mu         sync.Mutex
}

var (
	sessions   = make(map[string]*modelSession)
	sessionsMu sync.Mutex

	envOnce sync.Once
	envErr  error
)

func initEnvironment() error {
	envOnce.Do(func() {
		if p := os.Getenv(EnvSharedLibrary); p != "" {
			ort.SetSharedLibraryPath(p)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// sessionFor returns the shared session for modelPath, constructing it on
// first use.
func sessionFor(modelPath string) (*modelSession, error) {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()

	if s, ok := sessions[modelPath]; ok {
		return s, nil
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, types.NewErrorWithDetails(types.ErrAssetMissing,
			"layout model not readable", modelPath, err)
	}

	if err := initEnvironment(); err != nil {
		return nil, types.NewError(types.ErrInferenceFailed,
			"cannot initialize onnxruntime environment", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, types.NewError(types.ErrInferenceFailed,
			"cannot inspect layout model", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, types.NewError(types.ErrInferenceFailed,
			"layout model has no inputs or outputs", nil)
	}

	sess, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInferenceFailed,
			"cannot create inference session", err)
	}

	s := &modelSession{
		session:    sess,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}
	sessions[modelPath] = s

	logger.Info("layout model session created",
		logger.String("model", modelPath),
		logger.String("input", s.inputName),
		logger.String("output", s.outputName))

	return s, nil
}

// run executes one inference and returns the first output's data and shape.
func (s *modelSession) run(tensor []float32) ([]float32, []int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	input, err := ort.NewTensor(ort.NewShape(1, 3, InputSize, InputSize), tensor)
	if err != nil {
		return nil, nil, types.NewError(types.ErrInferenceFailed, "cannot create input tensor", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, types.NewError(types.ErrInferenceFailed, "inference failed", err)
	}

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
		return nil, nil, types.NewError(types.ErrInferenceFailed,
			"layout model output is not a float32 tensor", nil)
	}
	defer out.Destroy()

	shape := out.GetShape()
	data := make([]float32, len(out.GetData()))
	copy(data, out.GetData())

	dims := make([]int64, len(shape))
	copy(dims, shape)
	return data, dims, nil
}

// LoadModel eagerly constructs the session for modelPath. It is idempotent
// and lets callers pay the first-call initialization cost up front.
func LoadModel(modelPath string) error {
	_, err := sessionFor(modelPath)
	return err
}
