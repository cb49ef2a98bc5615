// Package corpus scores a directory of reference transcripts against ASR
// hypotheses and writes a WER report.
//
// A file is a hypothesis when its name contains the marker (default
// "_whisper") and a reference otherwise. A hypothesis is paired with the
// reference whose name, minus its extension, it starts with:
//
//	a.txt          reference
//	a_whisper.txt  hypothesis of a.txt
//	a_whisper2.txt hypothesis of a.txt
//	b_whisper.txt  unmatched, no b.txt
//
// Aggregate writes one CSV row per pair to wer_results_werpy.csv inside the
// scanned directory.
package corpus
