// Package layout decodes OCR layout documents and answers positional
// queries over them.
//
// A layout is how the DocAI service "sees" a document: a flat, linearized
// sequence of recognized characters, each with a Unicode code point and a
// bounding box in page pixel coordinates, plus a sequence of pages whose
// half-open character ranges tile the character sequence.
//
// # Usage
//
//	doc, err := layout.Decode(payload)
//	if err != nil {
//		return err
//	}
//	idx, err := layout.NewIndex(doc)
//	if err != nil {
//		return err // errors.Is(err, layout.ErrMalformedLayout)
//	}
//	page, _ := idx.PageForIndex(821)
//	text, _ := idx.TextForRange(0, 15)
//
// # Concurrency
//
// A Document is never modified after decoding and an Index is never
// modified after NewIndex returns, so one Index may be queried from any
// number of goroutines without coordination.
package layout
