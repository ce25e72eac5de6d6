package domain

// FragmentType represents the raw type of a parsed document piece.
type FragmentType int

const (
	// FragmentText is a narrative text block.
	FragmentText FragmentType = iota

	// FragmentTable is a tabular element, usually serialised as HTML.
	FragmentTable

	// FragmentImage is an embedded image carrying raw bytes.
	FragmentImage
)

// String returns the string representation.
func (t FragmentType) String() string {
	switch t {
	case FragmentText:
		return "text"
	case FragmentTable:
		return "table"
	case FragmentImage:
		return "image"
	default:
		return "unknown"
	}
}

// Modality returns the chunk modality this fragment type normalises to.
func (t FragmentType) Modality() Modality {
	switch t {
	case FragmentTable:
		return ModalityTable
	case FragmentImage:
		return ModalityImage
	default:
		return ModalityText
	}
}

// Fragment represents one raw piece of a parsed document.
// It is the parser's output before normalisation. Parser-specific shapes
// never travel past the normaliser; everything downstream sees Chunks.
type Fragment struct {
	// Type is the kind of content this fragment carries.
	Type FragmentType

	// Text is the textual content. For table fragments this may be an
	// HTML serialisation of the table.
	Text string

	// Image is the raw image bytes. Only set for image fragments.
	Image []byte

	// Page is the 1-based source page number, or 0 when unknown.
	Page int
}
