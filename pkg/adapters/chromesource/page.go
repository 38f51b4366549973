package chromesource

import (
	"net/http"
)

// capturePage hosts the video element and the canvas used to rasterize it.
// loadVideo resolves with the stream metadata; capture seeks, waits for the
// seek to settle and returns the frame as a PNG data URL.
const capturePage = `<!doctype html>
<html>
<body>
<video id="v" muted playsinline preload="auto" src="/video"></video>
<canvas id="c"></canvas>
<script>
const v = document.getElementById('v');
const c = document.getElementById('c');
window.loadVideo = () => new Promise((resolve, reject) => {
  const done = () => resolve({duration: v.duration, width: v.videoWidth, height: v.videoHeight});
  if (v.readyState >= 1) { done(); return; }
  v.addEventListener('loadedmetadata', done, {once: true});
  v.addEventListener('error', () => reject(new Error('video load failed')), {once: true});
});
window.capture = (t) => new Promise((resolve, reject) => {
  v.addEventListener('seeked', () => {
    c.width = v.videoWidth;
    c.height = v.videoHeight;
    c.getContext('2d').drawImage(v, 0, 0, c.width, c.height);
    resolve(c.toDataURL('image/png'));
  }, {once: true});
  v.addEventListener('error', () => reject(new Error('seek failed')), {once: true});
  v.currentTime = t;
});
</script>
</body>
</html>
`

// newHandler serves the capture page at / and the video file at /video.
// http.ServeFile answers range requests, which the video element needs to seek.
func newHandler(videoPath string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(capturePage))
	})
	mux.HandleFunc("/video", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, videoPath)
	})
	return mux
}
