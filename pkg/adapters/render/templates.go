package render

import "html/template"

// racePage implements the iOS open-or-fall-back race. The script mirrors
// package race: one state variable, one settle() guard shared by every signal
// handler, and settle() detaches all handlers and the timer on the first
// transition out of PENDING.
var racePage = template.Must(template.New("race").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>Opening app</title>
</head>
<body>
<p>Opening the app&hellip;</p>
<p><a href="{{.AppURI}}">Open the app</a> or <a href="{{.FallbackURL}}">continue in the browser</a>.</p>
<script>
(function () {
  var PENDING = {{.States.Pending}};
  var APP_OPENED = {{.States.AppOpened}};
  var FALLBACK_TRIGGERED = {{.States.FallbackTriggered}};
  var ABANDONED = {{.States.Abandoned}};
  var NAMES = {{.StateNames}};
  var appURI = {{.AppURIScript}};
  var fallbackURL = {{.FallbackURL}};
  var state = PENDING;
  var timer = null;

  function detach() {
    if (timer !== null) {
      clearTimeout(timer);
      timer = null;
    }
    document.removeEventListener("visibilitychange", onVisibilityChange);
    window.removeEventListener("pagehide", onPageHide);
  }

  function settle(next) {
    if (state !== PENDING) {
      return false;
    }
    state = next;
    detach();
    document.documentElement.setAttribute("data-race-state", NAMES[next]);
    return true;
  }

  function onVisibilityChange() {
    if (document.visibilityState === "hidden") {
      settle(APP_OPENED);
    }
  }

  function onPageHide() {
    settle(ABANDONED);
  }

  function onTimeout() {
    timer = null;
    if (document.visibilityState === "hidden") {
      settle(APP_OPENED);
      return;
    }
    if (settle(FALLBACK_TRIGGERED)) {
      window.location.replace(fallbackURL);
    }
  }

  document.addEventListener("visibilitychange", onVisibilityChange);
  window.addEventListener("pagehide", onPageHide);
  timer = setTimeout(onTimeout, {{.WindowMS}});
  window.location.href = appURI;
})();
</script>
</body>
</html>
`))

var messagePage = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))
