package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const treemapCSS = `
    text { pointer-events: none; font-family: sans-serif; font-size: 12px; }
    rect { stroke: #fff; }
    rect.parent, .grandparent rect { stroke-width: 2px; }
    .grandparent { cursor: pointer; }
    .grandparent text { font-weight: bold; }
    .grandparent:hover rect { fill: #999; }
    .children { cursor: pointer; }
    .children rect.child { opacity: 0; }
    .children:hover rect.child { opacity: 1; stroke-width: 1px; }
    .children:hover rect.parent { opacity: 0; }
    .bar rect { stroke: none; pointer-events: none; }
    .foreignobj { pointer-events: none; }
    .textdiv { font-family: sans-serif; font-size: 11px; padding: 4px 6px; overflow: hidden; line-height: 1.25; }
    .textdiv p { margin: 0; }
    .textdiv .title { font-weight: bold; }`

// zoomJS drives transitions between pre-rendered depth layers. Every
// positioned element carries its layout bounds in data-b; a transition
// projects them through the old and the new focus and interpolates.
const zoomJS = `
    (function () {
      const svg = (document.currentScript && document.currentScript.closest('svg')) || document.querySelector('svg');
      const cfg = %s;
      const canvas = svg.querySelector('g.canvas');
      const header = svg.querySelector('g.grandparent');
      const layers = new Map();
      svg.querySelectorAll('g.depth').forEach(g => layers.set(g.dataset.path, g));
      let current = cfg.focus;
      let transitioning = false;

      const bounds = el => el.dataset.b.split(' ').map(Number);
      const ease = t => t < 0.5 ? 4 * t * t * t : 1 - Math.pow(-2 * t + 2, 3) / 2;
      function project(b, d) {
        const sx = cfg.width / (d[2] - d[0]), sy = cfg.height / (d[3] - d[1]);
        return [(b[0] - d[0]) * sx, (b[1] - d[1]) * sy, (b[2] - d[0]) * sx, (b[3] - d[1]) * sy];
      }
      function place(layer, from, to, e) {
        layer.querySelectorAll('[data-b]').forEach(el => {
          const b = bounds(el), p = project(b, from), q = project(b, to);
          const r = p.map((v, i) => v + (q[i] - v) * e);
          el.setAttribute('x', r[0].toFixed(2));
          el.setAttribute('y', r[1].toFixed(2));
          el.setAttribute('width', Math.max(0, r[2] - r[0]).toFixed(2));
          el.setAttribute('height', Math.max(0, r[3] - r[1]).toFixed(2));
        });
      }
      function labels(layer, opacity, display) {
        layer.querySelectorAll('.textdiv').forEach(d => { d.style.opacity = opacity; d.style.display = display; });
      }

      function zoom(path) {
        if (transitioning || path == null || !layers.has(path) || path === current) return;
        const from = layers.get(current), to = layers.get(path);
        const d0 = bounds(from), d1 = bounds(to);
        if (d1[2] <= d1[0] || d1[3] <= d1[1]) return;
        transitioning = true;
        place(to, d0, d0, 0);
        to.removeAttribute('display');
        canvas.style.shapeRendering = 'auto';
        labels(from, 0, 'none');
        labels(to, 0, 'block');
        header.querySelector('text').textContent = to.dataset.header;
        const start = performance.now();
        requestAnimationFrame(function step(now) {
          const t = cfg.duration > 0 ? Math.min(1, (now - start) / cfg.duration) : 1;
          const e = ease(t);
          place(from, d0, d1, e);
          place(to, d0, d1, e);
          labels(to, e, 'block');
          if (t < 1) { requestAnimationFrame(step); return; }
          from.setAttribute('display', 'none');
          canvas.style.shapeRendering = 'crispEdges';
          current = path;
          transitioning = false;
        });
      }

      svg.querySelectorAll('g.depth > g.children').forEach(g => {
        g.addEventListener('click', () => zoom(g.dataset.path));
      });
      header.addEventListener('click', () => {
        const g = layers.get(current);
        zoom(g.hasAttribute('data-parent') ? g.dataset.parent : null);
      });
      svg.slocmap = { zoom: zoom, state: () => ({ current: current, transitioning: transitioning }) };
    })();`

type zoomConfig struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Duration int64   `json:"duration"`
	Focus    string  `json:"focus"`
}

func renderStyle(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s%s\n  </style>\n", treemapCSS, panelCSS)
}

func renderInteraction(buf *bytes.Buffer, r *svgRenderer, w, h float64) {
	cfg, _ := json.Marshal(zoomConfig{
		Width:    w,
		Height:   h,
		Duration: r.duration.Milliseconds(),
		Focus:    r.focus.Path(),
	})
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", fmt.Sprintf(zoomJS, cfg))
}
