package http

// indexPage 单页仪表盘。聚合全部来自JSON接口，页面只负责展示。
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Restaurant Dashboard</title>
<style>
body { font-family: sans-serif; margin: 0; background: #f5f6fa; color: #2f3640; }
header { background: #273c75; color: #fff; padding: 16px 24px; }
main { padding: 24px; max-width: 1100px; margin: 0 auto; }
.kpis { display: flex; gap: 16px; flex-wrap: wrap; }
.kpi { background: #fff; border-radius: 8px; padding: 16px 24px; flex: 1; min-width: 180px;
       box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.kpi h2 { margin: 0; font-size: 28px; }
.kpi p { margin: 4px 0 0; color: #718093; font-size: 13px; }
section { background: #fff; border-radius: 8px; padding: 16px 24px; margin-top: 16px;
          box-shadow: 0 1px 3px rgba(0,0,0,.1); }
table { width: 100%; border-collapse: collapse; font-size: 14px; }
th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #f1f2f6; }
.bar { background: #40739e; height: 14px; display: inline-block; }
#status { float: right; font-size: 13px; }
</style>
</head>
<body>
<header><h1>Restaurant Dashboard <span id="status">connecting…</span></h1></header>
<main>
<div class="kpis">
  <div class="kpi"><h2 id="kpi-total">–</h2><p>Restaurants</p></div>
  <div class="kpi"><h2 id="kpi-rating">–</h2><p>Average Rating</p></div>
  <div class="kpi"><h2 id="kpi-cost">–</h2><p>Average Cost for Two</p></div>
  <div class="kpi"><h2 id="kpi-corr">–</h2><p>Votes / Rating Correlation</p></div>
</div>
<section><h3>Mean Rating by Online Ordering</h3><table id="tbl-online"></table></section>
<section><h3>Mean Rating by Table Booking</h3><table id="tbl-book"></table></section>
<section><h3>Average Cost by Restaurant Type</h3><table id="tbl-cost"></table></section>
<section><h3>Rating Distribution</h3><table id="tbl-hist"></table></section>
<section><h3>Top 10 Most Voted</h3><table id="tbl-top"></table></section>
</main>
<script>
function fill(id, rows) {
  document.getElementById(id).innerHTML = rows.join('');
}
function bar(v, max, text) {
  var w = max > 0 ? Math.round(v / max * 300) : 0;
  return '<td><span class="bar" style="width:' + w + 'px"></span> ' + text + '</td>';
}
function refresh() {
  fetch('/api/dashboard/snapshot').then(function (r) { return r.json(); }).then(function (s) {
    document.getElementById('kpi-total').textContent = s.summary.total_restaurants;
    document.getElementById('kpi-rating').textContent = s.summary.avg_rating.toFixed(2);
    document.getElementById('kpi-cost').textContent = s.summary.avg_cost_for_two.toFixed(0);
    document.getElementById('kpi-corr').textContent =
      s.votes_rate_corr === null ? 'n/a' : s.votes_rate_corr.toFixed(3);

    var mk = function (obj) {
      var max = Math.max.apply(null, Object.values(obj).concat([0]));
      return Object.keys(obj).sort().map(function (k) {
        return '<tr><th>' + k + '</th>' + bar(obj[k], max, obj[k].toFixed(2)) + '</tr>';
      });
    };
    fill('tbl-online', mk(s.rating_by_online_order));
    fill('tbl-book', mk(s.rating_by_book_table));
    fill('tbl-cost', mk(s.cost_by_type));

    var maxCount = Math.max.apply(null, s.rating_histogram.map(function (b) { return b.count; }).concat([0]));
    fill('tbl-hist', s.rating_histogram.map(function (b) {
      return '<tr><th>' + b.label + '</th>' + bar(b.count, maxCount, b.count) + '</tr>';
    }));
  });
  fetch('/api/dashboard/top-voted?limit=10').then(function (r) { return r.json(); }).then(function (d) {
    fill('tbl-top', ['<tr><th>Name</th><th>Rating</th><th>Votes</th><th>Cost</th></tr>'].concat(
      d.restaurants.map(function (r) {
        return '<tr><td>' + r.name + '</td><td>' + r.rate + '</td><td>' + r.votes +
          '</td><td>' + r.cost_for_two + '</td></tr>';
      })));
  });
}
refresh();
var ws = new WebSocket('ws://' + location.host + '/api/ws/dashboard');
ws.onopen = function () { document.getElementById('status').textContent = 'live'; };
ws.onclose = function () { document.getElementById('status').textContent = 'offline'; };
ws.onmessage = function (ev) {
  var msg = JSON.parse(ev.data);
  if (msg.type === 'dataset_reloaded') { refresh(); }
};
</script>
</body>
</html>
`
