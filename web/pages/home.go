// Package pages renders full HTML documents.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/web/components"
)

// HomePage is the poster editor. The page starts a session on load and
// drives it through the JSON API; all state lives on the server.
func HomePage() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, controls,
			templ.EscapeString(placement.DefaultContent),
			placement.MinSize, placement.MaxSize, placement.DefaultSize,
			placement.MinPos, placement.MaxPos, placement.DefaultX,
			placement.MinPos, placement.MaxPos, placement.DefaultY,
			placement.FormatColor(placement.DefaultForeground),
			placement.FormatColor(placement.DefaultBackground),
		); err != nil {
			return err
		}
		if err := components.ExportButton(components.ExportButtonData{State: "disabled"}).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, tail)
		return err
	})
}

const head = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Poster QR</title>
<script src="https://cdn.tailwindcss.com"></script>
<script src="https://unpkg.com/htmx.org@2.0.4"></script>
</head>
<body class="min-h-screen bg-gray-50 text-gray-900">
<main class="mx-auto flex max-w-6xl flex-col gap-6 p-6 lg:flex-row">
`

const controls = `<section class="flex w-full flex-col gap-4 lg:w-80">
<h1 class="text-xl font-semibold">Poster QR</h1>
<label class="flex flex-col gap-1 text-sm">Poster image
<input id="file" type="file" accept="image/*" class="text-sm"></label>
<p id="upload-error" class="hidden text-sm text-red-600"></p>
<label class="flex flex-col gap-1 text-sm">QR content
<input id="content" type="text" value="%s" class="rounded-md border px-2 py-1"></label>
<label class="flex flex-col gap-1 text-sm">Size
<input id="size" type="range" min="%g" max="%g" step="0.5" value="%g"></label>
<label class="flex flex-col gap-1 text-sm">Horizontal position
<input id="x" type="range" min="%g" max="%g" step="0.5" value="%g"></label>
<label class="flex flex-col gap-1 text-sm">Vertical position
<input id="y" type="range" min="%g" max="%g" step="0.5" value="%g"></label>
<div class="flex gap-4 text-sm">
<label class="flex items-center gap-2">Foreground <input id="foreground" type="color" value="%s"></label>
<label class="flex items-center gap-2">Background <input id="background" type="color" value="%s"></label>
</div>
<button id="reset" type="button" class="rounded-md border px-4 py-1.5 text-sm">Recenter</button>
<div id="export-slot">`

const tail = `</div>
</section>
<section id="workspace" class="flex flex-1 items-start justify-center rounded-md border-2 border-dashed border-transparent">
<div id="stage" class="relative select-none touch-none" style="display:none">
<img id="preview" alt="Poster preview" draggable="false" class="block">
</div>
<p id="empty" class="p-8 text-sm text-gray-500">Upload or drop an image to start.</p>
</section>
</main>
<div id="toasts"></div>
<script>
(() => {
  let sid = null, view = null, hover = false;
  // active is set as soon as a down on the overlay or handle is sent, before
  // the server answers, so a fast release still sends its up.
  let active = false;
  const queue = [];
  let sending = false;
  const $ = (id) => document.getElementById(id);
  const api = (path, init) => fetch('/api/sessions/' + sid + path, init);
  const json = (method, path, body) => api(path, {method, headers: {'Content-Type': 'application/json'}, body: JSON.stringify(body)}).then(r => r.json());

  function refreshButton() {
    fetch('/api/sessions/' + sid + '/export-button').then(r => r.text()).then(html => {
      $('export-slot').innerHTML = html;
      const b = $('export-button');
      if (b) b.addEventListener('click', exportPoster);
    });
  }
  function render(v) {
    view = v;
    for (const id of ['size', 'x', 'y']) {
      if (document.activeElement !== $(id)) $(id).value = v[id];
    }
    if (!v.ready) return;
    $('empty').style.display = 'none';
    $('stage').style.display = '';
    $('preview').style.width = v.surface.width + 'px';
    $('preview').style.height = v.surface.height + 'px';
    $('preview').src = '/api/sessions/' + sid + '/preview.png?hover=' + (hover || active ? 1 : 0) + '&t=' + Date.now();
  }
  function target(x, y) {
    const s = view.surface, side = view.size / 100 * s.width;
    const cx = view.x / 100 * s.width, cy = view.y / 100 * s.height;
    const hx = cx + side / 2, hy = cy + side / 2;
    if (Math.hypot(x - hx, y - hy) <= 10) return 'handle';
    if (Math.abs(x - cx) <= side / 2 && Math.abs(y - cy) <= side / 2) return 'overlay';
    return 'surface';
  }

  // Pointer events go out one at a time in arrival order. A move waiting
  // behind another request is replaced by the newer move.
  function send(body) {
    const last = queue[queue.length - 1];
    if (body.type === 'move' && last && last.type === 'move') {
      queue[queue.length - 1] = body;
    } else {
      queue.push(body);
    }
    pump();
  }
  function pump() {
    if (sending || queue.length === 0) return;
    sending = true;
    const body = queue.shift();
    json('POST', '/pointer', body).then(render).finally(() => { sending = false; pump(); });
  }
  function down(x, y, point) {
    const r = $('stage').getBoundingClientRect();
    const tgt = target(x - r.left, y - r.top);
    if (tgt === 'surface') return false;
    active = true;
    send(Object.assign({type: 'down', target: tgt}, point));
    return true;
  }
  function end(type) {
    if (!active) return;
    active = false;
    send({type});
  }

  function exportPoster() {
    const b = $('export-button');
    b.disabled = true; b.textContent = 'Processing...';
    api('/export', {method: 'POST'}).then(async r => {
      if (!r.ok) {
        const e = await r.json();
        const t = await fetch('/api/htmx/toast', {method: 'POST', body: new URLSearchParams({title: e.error, variant: 'error', dismissible: 'on'})});
        $('toasts').insertAdjacentHTML('beforeend', await t.text());
        return;
      }
      const a = document.createElement('a');
      a.href = URL.createObjectURL(await r.blob());
      a.download = 'poster-qr.png';
      a.click();
      URL.revokeObjectURL(a.href);
    }).finally(refreshButton);
  }
  function upload(f) {
    if (!f) return;
    const fd = new FormData(); fd.append('file', f);
    api('/image', {method: 'POST', body: fd}).then(async r => {
      const v = await r.json();
      $('upload-error').classList.toggle('hidden', r.ok);
      if (!r.ok) { $('upload-error').textContent = v.error; return; }
      render(v); refreshButton();
    });
  }

  fetch('/api/sessions', {method: 'POST'}).then(r => r.json()).then(v => {
    sid = v.id; view = v;
    json('PUT', '/viewport', {maxWidth: Math.min(window.innerWidth - 48, 900), maxHeight: window.innerHeight - 48});
  });
  $('file').addEventListener('change', (e) => upload(e.target.files[0]));

  const workspace = $('workspace');
  workspace.addEventListener('dragover', (e) => {
    e.preventDefault();
    e.dataTransfer.dropEffect = 'copy';
    workspace.classList.add('border-gray-400');
  });
  workspace.addEventListener('dragleave', () => workspace.classList.remove('border-gray-400'));
  workspace.addEventListener('drop', (e) => {
    e.preventDefault();
    workspace.classList.remove('border-gray-400');
    upload(e.dataTransfer.files[0]);
  });

  for (const id of ['content', 'size', 'x', 'y', 'foreground', 'background']) {
    $(id).addEventListener('input', (e) => {
      const v = ['size', 'x', 'y'].includes(id) ? parseFloat(e.target.value) : e.target.value;
      json('PATCH', '/settings', {[id]: v}).then(render);
    });
  }
  $('reset').addEventListener('click', () => json('POST', '/reset').then(render));

  const stage = $('stage');
  stage.addEventListener('mouseenter', () => { hover = true; if (view) render(view); });
  stage.addEventListener('mouseleave', () => { hover = false; if (view) render(view); });
  stage.addEventListener('mousedown', (e) => {
    if (down(e.clientX, e.clientY, {x: e.clientX, y: e.clientY})) e.preventDefault();
  });
  window.addEventListener('mousemove', (e) => { if (active) send({type: 'move', x: e.clientX, y: e.clientY}); });
  window.addEventListener('mouseup', () => end('up'));
  window.addEventListener('blur', () => end('blur'));
  stage.addEventListener('touchstart', (e) => {
    const t = e.touches[0];
    if (down(t.clientX, t.clientY, {touches: [{x: t.clientX, y: t.clientY}]})) e.preventDefault();
  }, {passive: false});
  stage.addEventListener('touchmove', (e) => {
    if (!active) return;
    e.preventDefault();
    send({type: 'move', touches: Array.from(e.touches, t => ({x: t.clientX, y: t.clientY}))});
  }, {passive: false});
  stage.addEventListener('touchend', () => end('up'));
  stage.addEventListener('touchcancel', () => end('cancel'));
})();
</script>
</body>
</html>
`
