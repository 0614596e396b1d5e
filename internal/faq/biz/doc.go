// Package biz implements the question-answering pipeline of the FAQ service:
// lexical ranking over the document index, FAQ direct matching, the upcoming
// event override, prompt assembly, multi-model completion fallback, and
// answer assembly with a confidence estimate.
package biz
