// Package record defines the per-sentence annotation records consumed by the
// tag strategy engine, and a tolerant parser for their serialized form.
//
// Records arrive from the external annotation service either as strict JSON
// or as Python-style literal structures (single-quoted strings, True/False/
// None). Both forms are normalized into one in-memory representation up
// front; nothing downstream branches on the source syntax.
package record

// WordRef locates one word of a tagged span within the tokenized sentence.
// Never mutated after creation.
type WordRef struct {
	Word         string `json:"word"`
	WordIndex    int    `json:"word_index"`
	PartOfSpeech string `json:"part_of_speech"`
}

// TagRecord is one observed grammatical annotation within a sentence:
// a human-readable tag description, the syntactic category assigned by the
// annotator, and the words the annotation covers. Multiple TagRecords may
// exist per sentence; their order is the annotator's insertion order and is
// preserved through transformation.
type TagRecord struct {
	Tag      string    `json:"tag"`
	Category string    `json:"category"`
	Words    []WordRef `json:"words"`
}
