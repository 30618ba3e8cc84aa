// Package parser turns uploaded files into documents.
//
// PDF files keep their original page numbering: each page gets a raster
// snapshot, positioned text runs and the page viewport. Pages that fail to
// render are skipped. Text-like formats are split into paragraph pages.
package parser
