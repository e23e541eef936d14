package dl

import (
	"regexp"
	"strings"
)

var youtubePatterns = map[string]*regexp.Regexp{
	"youtube":   regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.|music\.)?youtube\.com/watch\?v=([\w-]{11})(?:[&#?].*)?$`),
	"youtu_be":  regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtu\.be/([\w-]{11})(?:[?#].*)?$`),
	"yt_shorts": regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/shorts/([\w-]{11})(?:[?#].*)?$`),
}

var explicitTitle = regexp.MustCompile(`(?i)explicit|uncensored|unedited|parental advisory`)

// IsExplicitTitle reports whether a title marks the explicit version of a song.
func IsExplicitTitle(title string) bool {
	return explicitTitle.MatchString(title)
}

// ThumbnailURL returns the default thumbnail of a YouTube video id.
func ThumbnailURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}

// WatchURL builds the canonical watch URL for a YouTube video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// clearQuery removes fragments and extra parameters from a query string.
func clearQuery(query string) string {
	query = strings.SplitN(query, "#", 2)[0]
	query = strings.SplitN(query, "&", 2)[0]
	return strings.TrimSpace(query)
}

// IsYouTubeURL reports whether query is a YouTube watch, youtu.be or shorts link.
func IsYouTubeURL(query string) bool {
	query = clearQuery(query)
	if query == "" {
		return false
	}
	for _, pattern := range youtubePatterns {
		if pattern.MatchString(query) {
			return true
		}
	}
	return false
}

// NormalizeYouTubeURL converts youtu.be and shorts links into a standard watch URL.
// Other URLs are returned unchanged.
func NormalizeYouTubeURL(url string) string {
	if url == "" {
		return ""
	}

	if strings.Contains(url, "youtu.be/") {
		parts := strings.SplitN(strings.SplitN(url, "youtu.be/", 2)[1], "?", 2)
		videoID := strings.SplitN(parts[0], "#", 2)[0]
		return WatchURL(videoID)
	}

	if strings.Contains(url, "youtube.com/shorts/") {
		parts := strings.SplitN(strings.SplitN(url, "youtube.com/shorts/", 2)[1], "?", 2)
		videoID := strings.SplitN(parts[0], "#", 2)[0]
		return WatchURL(videoID)
	}

	return url
}

// ExtractVideoID returns the video id of a YouTube link, or "" if url is not one.
func ExtractVideoID(url string) string {
	url = clearQuery(NormalizeYouTubeURL(url))
	for _, pattern := range youtubePatterns {
		if match := pattern.FindStringSubmatch(url); len(match) > 1 {
			return match[1]
		}
	}
	return ""
}
