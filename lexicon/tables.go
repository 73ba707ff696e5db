package lexicon

// seed backchannel words of spoken Slovenian, by category
var seed = map[string][]string{
	"nonlexical": {"mhm", "mh", "mhmh", "mm", "mmm", "hmm", "hm"},
	"agreement":  {"ja", "aha", "aja", "ne", "no", "ok", "okej", "prav", "tako", "res"},
	"assessment": {"dobro", "super", "fajn", "seveda", "vredu", "redu"},
	"attention":  {"a", "aa", "aaa"},
	"filler":     {"eee", "eem", "em"},
	"reaction":   {"ha", "ah", "oh", "eh", "ojej", "joj"},
	"continuer":  {"prosim", "razumem"},
	"question":   {"kaj", "kako"},

	MultiwordStarter: {"v"},
}

var fillerForms = []string{"e", "ee", "eee", "eem", "em", "emm", "hm", "hmm", "uh", "uhh"}

var noisyStarters = []string{"eee", "eem", "hm", "hmm", "uh", "uhh"}

var connectorForms = []string{
	"in", "pa", "ali", "ampak", "vendar", "da", "ker", "ko", "če", "kot", "ki",
	"ter", "oziroma", "torej", "potem", "samo", "tudi",
	"na", "v", "za", "z", "s", "k", "o", "od", "do", "po", "pri", "iz",
}

var questionWords = []string{
	"kaj", "kdo", "kje", "kdaj", "zakaj", "kako", "kam", "kod", "koliko",
	"kateri", "katera", "katero", "čigav", "ali",
}

var greetingPhrases = []string{
	"dobro jutro", "dober dan", "dober večer", "dobro vecer",
	"lep dan", "lep večer", "lepa noč", "lepo jutro",
	"živjo", "zdravo", "adijo", "nasvidenje", "zbogom",
}
