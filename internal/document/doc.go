// Package document defines the in-memory representation of an opened file:
// a Document made of ordered Pages, and the bilingual SentencePairs that a
// translation attaches to a page.
package document
