package candidate

import (
	"strconv"
	"strings"

	"github.com/revelaction/dialmark/storage"
)

// Column names shared by the candidate exports and the decision import.
const (
	ColASentID = "A_sent_id"
	ColBSentID = "B_sent_id"

	ColKeep = "keep?"

	ColCocoASentID  = "a_sent_id"
	ColCocoBSentID  = "b_sent_id"
	ColIsCoco       = "is_coconstruction"
	ColCocoDeprel   = "coconstruct_deprel"
	ColGovernorID   = "governor_token_id"
	ColCocoNotes    = "notes"
	ColWhyCandidate = "why_candidate"
)

var backchannelFlags = []Flags{
	ImmediateContinuation, WindowedContinuation, DiscourseRelation, NearEnd,
	ALooksBackchannel, BHasContent, BIsQuestion, BAfterQuestion,
	BVerbalBackchannel, BNotAllInLexicon,
}

var coconstructionFlags = []Flags{
	OrphanTail, Truncation, TrailingConnector, LexicalOverlap, ShortB,
	AContinues, AIsQuestion, BBackchannelLike, BQuestionLike, BRootIntjPart,
}

// Header returns the export columns of kind.
func Header(kind Kind) []string {
	if kind == Coconstruction {
		h := []string{
			"doc", "score", "band",
			ColCocoASentID, "a_speaker", "a_text", "a_sound_url",
			ColCocoBSentID, "b_speaker", "b_text", "b_sound_url",
			"len", "b_root_upos", "b_root_form", "b_first_token",
		}
		h = appendFlagColumns(h, coconstructionFlags)
		return append(h, ColWhyCandidate, ColIsCoco, ColCocoDeprel, ColGovernorID, ColCocoNotes)
	}

	h := []string{
		"doc", "confidence", "confidence_score",
		ColASentID, "A_speaker", "A_text", "A_sound_url",
		ColBSentID, "B_speaker", "B_text", "B_sound_url",
		"B_tokens", "B_token_count", "backchannel_type", ColWhyCandidate,
	}
	h = appendFlagColumns(h, backchannelFlags)
	return append(h, "proposed_attach_root", "proposed_attach_last_content", ColKeep)
}

// Table renders candidates of one kind as a review table. Decision columns
// are left empty.
func Table(kind Kind, cs []Candidate) storage.Table {
	t := storage.Table{Header: Header(kind)}
	for _, c := range cs {
		t.Rows = append(t.Rows, record(kind, c))
	}
	return t
}

func record(kind Kind, c Candidate) []string {
	why := strings.Join(c.Reasons, "; ")

	if kind == Coconstruction {
		r := []string{
			c.Doc, strconv.Itoa(c.Score), c.Confidence.String(),
			c.A.SentID, c.A.Speaker, c.A.Text, c.A.SoundURL,
			c.B.SentID, c.B.Speaker, c.B.Text, c.B.SoundURL,
			strconv.Itoa(c.Length), c.BRootUPOS, c.BRootForm, c.BFirstToken,
		}
		r = appendFlagValues(r, c.Flags, coconstructionFlags)
		return append(r, why, "", "", "", "")
	}

	r := []string{
		c.Doc, c.Confidence.String(), strconv.Itoa(c.Score),
		c.A.SentID, c.A.Speaker, c.A.Text, c.A.SoundURL,
		c.B.SentID, c.B.Speaker, c.B.Text, c.B.SoundURL,
		strings.Join(c.BTokens, " "), strconv.Itoa(c.Length), c.BackchannelType, why,
	}
	r = appendFlagValues(r, c.Flags, backchannelFlags)
	return append(r, c.Attach, c.AttachLastContent, "")
}

func appendFlagColumns(h []string, flags []Flags) []string {
	for _, f := range flags {
		h = append(h, FlagName(f))
	}
	return h
}

func appendFlagValues(r []string, set Flags, flags []Flags) []string {
	for _, f := range flags {
		if set.Has(f) {
			r = append(r, "1")
			continue
		}
		r = append(r, "0")
	}
	return r
}
