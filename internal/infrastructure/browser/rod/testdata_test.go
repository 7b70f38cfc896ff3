package rod

// Test pages
const (
	ArticleHTML = `<!DOCTYPE html>
<html>
<head><title>Article</title></head>
<body>
	<nav id="nav"><a href="/home">Home</a><a href="/about">About</a></nav>
	<main id="main">
		<h1>Reading made easier</h1>
		<p id="intro">This paragraph is long enough to be transformed for bionic reading.</p>
		<button id="buy">Buy now</button>
		<a id="next" href="/next">Next article</a>
	</main>
	<div id="aura-extension-mount"><button>Aura</button></div>
</body>
</html>`

	ScrollableHTML = `<!DOCTYPE html>
<html>
<body style="height: 5000px;">
	<h1 id="top">Top of Page</h1>
	<div style="margin-top: 2000px;" id="middle">Middle</div>
	<p id="text" style="margin-top: 200px;">Plain text that is not interactive</p>
</body>
</html>`

	// snapshotFixture is what snapshotJS returns for a tiny page.
	snapshotFixture = `{
		"url": "https://example.com/",
		"viewport": {"width": 800, "height": 600},
		"next": 9,
		"root": {"k": 1, "r": 0, "t": "HTML", "a": [], "s": {"d": "block", "v": "visible", "o": 1}, "b": [0, 0, 800, 600], "c": [
			{"k": 1, "r": 1, "t": "head", "a": [], "s": {"d": "none", "v": "visible", "o": 1}, "b": [0, 0, 0, 0], "c": [
				{"k": 1, "r": 2, "t": "title", "a": [], "s": {"d": "none", "v": "visible", "o": 1}, "b": [0, 0, 0, 0], "c": [
					{"k": 3, "r": 3, "x": "Snap"}
				]}
			]},
			{"k": 1, "r": 4, "t": "body", "a": [["class", "page"]], "s": {"d": "block", "v": "visible", "o": 1}, "b": [0, 0, 800, 1200], "c": [
				{"k": 1, "r": 5, "t": "button", "a": [["id", "go"]], "s": {"d": "inline-block", "v": "visible", "o": 1}, "b": [10, 700, 80, 24], "c": [
					{"k": 3, "r": 6, "x": "Go"}
				]},
				{"k": 8, "r": 7, "x": " note "},
				{"k": 1, "r": 8, "t": "div", "a": [["id", "ghost"]], "s": {"d": "block", "v": "hidden", "o": 0.5}, "b": [0, 0, 10, 10], "c": []}
			]}
		]}
	}`
)
