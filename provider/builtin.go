package provider

// Embed sources known to serve TMDB-keyed players. Order matters: it is
// the probe order and the encounter order used to break ranking ties.
var builtin = []Target{
	mustTemplates("VidSrc.to", "https://vidsrc.to/embed/{type}/{id}", "https://vidsrc.to/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.me", "https://vidsrc.me/embed/{type}?tmdb={id}", "https://vidsrc.me/embed/tv?tmdb={id}&season={season}&episode={episode}"),
	mustTemplates("VidSrc.xyz", "https://vidsrc.xyz/embed/{type}?tmdb={id}", "https://vidsrc.xyz/embed/tv?tmdb={id}&season={season}&episode={episode}"),
	mustTemplates("VidSrc.icu", "https://vidsrc.icu/embed/{type}/{id}", "https://vidsrc.icu/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.cc", "https://vidsrc.cc/v2/embed/{type}/{id}", "https://vidsrc.cc/v2/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.pro", "https://vidsrc.pro/embed/{type}/{id}", "https://vidsrc.pro/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.vip", "https://vidsrc.vip/embed/{type}/{id}", "https://vidsrc.vip/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.nl", "https://player.vidsrc.nl/embed/{type}/{id}", "https://player.vidsrc.nl/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.in", "https://vidsrc.in/embed/{type}/{id}", "https://vidsrc.in/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("Embed.su", "https://embed.su/embed/{type}/{id}", "https://embed.su/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidLink", "https://vidlink.pro/{type}/{id}", "https://vidlink.pro/tv/{id}/{season}/{episode}"),
	mustTemplates("Nontongo", "https://www.nontongo.win/embed/{type}/{id}", "https://www.nontongo.win/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("SuperEmbed", "https://streamingnow.mov/?video_id={id}&tmdb=1", "https://streamingnow.mov/?video_id={id}&tmdb=1&s={season}&e={episode}"),
	mustTemplates("Autoembed.cc", "https://player.autoembed.cc/embed/{type}/{id}", "https://player.autoembed.cc/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("2Embed.cc", "https://www.2embed.cc/embed/{id}", "https://www.2embed.cc/embedtv/{id}&s={season}&e={episode}"),
	mustTemplates("SmashyStream", "https://player.smashy.stream/{type}/{id}", "https://player.smashy.stream/tv/{id}?s={season}&e={episode}"),
	mustTemplates("Vidfast.pro", "https://vidfast.pro/{type}/{id}", "https://vidfast.pro/tv/{id}/{season}/{episode}"),
	mustTemplates("Videasy", "https://player.videasy.net/{type}/{id}", "https://player.videasy.net/tv/{id}/{season}/{episode}"),
	mustTemplates("MoviesAPI", "https://moviesapi.club/{type}/{id}", "https://moviesapi.club/tv/{id}-{season}-{episode}"),
	mustTemplates("Vidora.su", "https://vidora.su/embed/{type}/{id}", "https://vidora.su/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.su", "https://vidsrc.su/embed/{type}/{id}", "https://vidsrc.su/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.rip", "https://vidsrc.rip/embed/{type}/{id}", "https://vidsrc.rip/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.cx", "https://vidsrc.cx/embed/{type}/{id}", "https://vidsrc.cx/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("VidSrc.store", "https://vidsrc.store/embed/{type}/{id}", "https://vidsrc.store/embed/tv/{id}/{season}/{episode}"),
	mustTemplates("RiveStream", "https://rivestream.live/embed?type={type}&id={id}", "https://rivestream.live/embed?type=tv&id={id}&season={season}&episode={episode}"),
	mustTemplates("P-Stream", "https://iframe.pstream.org/{type}/{id}", "https://iframe.pstream.org/tv/{id}/{season}/{episode}"),
	mustTemplates("Autoembed.co", "https://autoembed.co/{type}/tmdb/{id}", "https://autoembed.co/tv/tmdb/{id}-{season}-{episode}"),
	mustTemplates("SuperEmbed VIP", "https://streamingnow.mov/directstream.php?video_id={id}&tmdb=1", "https://streamingnow.mov/directstream.php?video_id={id}&tmdb=1&s={season}&e={episode}"),
	mustTemplates("GoDrivePlayer", "https://godriveplayer.com/player.php?tmdb={id}", "https://godriveplayer.com/player.php?type=series&tmdb={id}&season={season}&episode={episode}"),
	mustTemplates("CurtStream", "https://curtstream.com/movies/tmdb/{id}", "https://curtstream.com/series/tmdb/{id}/{season}/{episode}/"),
	mustTemplates("ApiMDB", "https://v2.apimdb.net/e/tmdb/{type}/{id}", "https://v2.apimdb.net/e/tmdb/tv/{id}/{season}/{episode}/"),
	mustTemplates("DBGdrive", "https://databasegdriveplayer.co/player.php?tmdb={id}", "https://databasegdriveplayer.co/player.php?type=series&tmdb={id}&season={season}&episode={episode}"),
}

var multiEmbed = mustTemplates("MultiEmbed", "https://multiembed.mov/?video_id={id}&tmdb=1", "https://multiembed.mov/?video_id={id}&tmdb=1&s={season}&e={episode}")

// verifiedOrder is the short list the catalog falls back to, best first.
var verifiedOrder = []string{
	"VidLink", "Vidfast.pro", "SmashyStream", "Nontongo", "MoviesAPI",
	"GoDrivePlayer", "VidSrc.me", "MultiEmbed", "2Embed.cc", "VidSrc.icu",
}

// Default returns every known embed source.
func Default() Registry {
	return mustRegistry(builtin...)
}

// Verified returns the short list of sources confirmed to play, in
// preference order.
func Verified() Registry {
	all := mustRegistry(append(append([]Target{}, builtin...), multiEmbed)...)
	out := make([]Target, 0, len(verifiedOrder))
	for _, name := range verifiedOrder {
		if t, ok := all.Lookup(name); ok {
			out = append(out, t)
		}
	}
	return mustRegistry(out...)
}

// Named resolves a registry by name: "default" (or empty) or "verified".
func Named(name string) (Registry, bool) {
	switch name {
	case "", "default":
		return Default(), true
	case "verified":
		return Verified(), true
	}
	return Registry{}, false
}
